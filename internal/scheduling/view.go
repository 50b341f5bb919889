package scheduling

import (
	"github.com/AngelCh415/voyager-portal/internal/chart"
	"github.com/AngelCh415/voyager-portal/internal/models"
)

const (
	ChartHeight = 280
	MinBar      = 4
)

type Bar struct {
	models.HourlyDemand
	HeightPx float64 `json:"height_px"`
	Selected bool    `json:"selected"`
	Peak     bool    `json:"peak"`
}

type Selection struct {
	Hour           int     `json:"hour"`
	Label          string  `json:"label"`
	Users          int     `json:"users"`
	KnownHour      bool    `json:"known_hour"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
}

type View struct {
	Bars              []Bar                         `json:"bars"`
	AxisTicks         []float64                     `json:"axis_ticks"`
	Peak              models.HourlyDemand           `json:"peak"`
	HighActivityHours int                           `json:"high_activity_hours"`
	Selected          Selection                     `json:"selected"`
	Suggestions       []models.SchedulingSuggestion `json:"suggestions"`
}

// BuildView renders the hourly demand chart with hour selected.
func BuildView(hour int) (View, error) {
	if err := ValidateHour(hour); err != nil {
		return View{}, err
	}
	rows := Hourly()
	peak := PeakHour()

	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = float64(r.Users)
	}
	heights := chart.BarHeights(values, ChartHeight, MinBar)

	bars := make([]Bar, len(rows))
	for i, r := range rows {
		bars[i] = Bar{HourlyDemand: r, HeightPx: heights[i], Selected: r.Hour == hour, Peak: r.Hour == peak.Hour}
	}

	users, known := UsersForHour(hour)
	return View{
		Bars:              bars,
		AxisTicks:         chart.AxisTicks(float64(peak.Users)),
		Peak:              peak,
		HighActivityHours: HighActivityHours(HighActivityThreshold),
		Selected: Selection{
			Hour:           hour,
			Label:          Label(hour),
			Users:          users,
			KnownHour:      known,
			Recommendation: RecommendationForHour(hour),
			Confidence:     ConfidenceForHour(hour),
		},
		Suggestions: SuggestionsForHour(hour),
	}, nil
}
