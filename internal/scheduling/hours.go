// Package scheduling holds the hour-of-day demand table and the canned
// campaign timing recommendations shown on the scheduling page.
package scheduling

import (
	"errors"
	"fmt"

	"github.com/AngelCh415/voyager-portal/internal/metrics"
	"github.com/AngelCh415/voyager-portal/internal/models"
)

const (
	DefaultHour           = 14
	HighActivityThreshold = 32000
	defaultRecommendation = "Standard engagement"
	suggestionConfidence  = 0.72
)

var ErrInvalidHour = errors.New("hour must be between 0 and 23")

// hourly is ordered the way the chart draws it: morning through 01:00.
var hourly = []models.HourlyDemand{
	{Hour: 9, Users: 13103},
	{Hour: 10, Users: 21462},
	{Hour: 11, Users: 28165},
	{Hour: 12, Users: 33199},
	{Hour: 13, Users: 35177},
	{Hour: 14, Users: 38040},
	{Hour: 15, Users: 33046},
	{Hour: 16, Users: 33924},
	{Hour: 17, Users: 31273},
	{Hour: 18, Users: 30210},
	{Hour: 19, Users: 29401},
	{Hour: 20, Users: 32046},
	{Hour: 21, Users: 34240},
	{Hour: 22, Users: 34150},
	{Hour: 23, Users: 31628},
	{Hour: 0, Users: 25224},
	{Hour: 1, Users: 15889},
}

var recommendations = map[int]string{
	9:  "Morning start - users beginning their day",
	10: "Rising activity - users planning their day",
	11: "Strong engagement - mid-morning peak",
	12: "Lunch break activity - high engagement",
	13: "Afternoon peak - excellent engagement",
	14: "PEAK HOUR - Maximum user activity",
	15: "Post-peak afternoon - still very high",
	16: "Late afternoon - good engagement",
	17: "End of workday - users planning evening",
	18: "Evening planning - dinner/leisure time",
	19: "Prime evening - high engagement",
	20: "Peak evening - maximum leisure time",
	21: "Late evening peak - high engagement",
	22: "Night activity - engaged users",
	23: "Late night - dedicated users",
	0:  "Midnight activity - night owls",
	1:  "Late night - low but engaged audience",
}

func Label(hour int) string { return fmt.Sprintf("%02d:00", hour) }

// Hourly returns a copy of the demand table with labels filled in.
func Hourly() []models.HourlyDemand {
	out := make([]models.HourlyDemand, len(hourly))
	for i, h := range hourly {
		h.Label = Label(h.Hour)
		out[i] = h
	}
	return out
}

func ValidateHour(hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: got %d", ErrInvalidHour, hour)
	}
	return nil
}

func UsersForHour(hour int) (int, bool) {
	for _, h := range hourly {
		if h.Hour == hour {
			return h.Users, true
		}
	}
	return 0, false
}

// RecommendationForHour returns the canned timing note, with the user count
// appended when the hour is in the table.
func RecommendationForHour(hour int) string {
	r, ok := recommendations[hour]
	if !ok {
		return defaultRecommendation
	}
	if n, ok := UsersForHour(hour); ok {
		return fmt.Sprintf("%s (%s users)", r, metrics.FormatCount(float64(n)))
	}
	return r
}

func ConfidenceForHour(hour int) float64 {
	switch {
	case hour >= 12 && hour <= 22:
		return 0.9
	case hour >= 9 && hour <= 11:
		return 0.7
	case hour >= 23 || hour <= 1:
		return 0.6
	}
	return 0.5
}

// PeakHour is the first busiest hour in chart order.
func PeakHour() models.HourlyDemand {
	peak := hourly[0]
	for _, h := range hourly[1:] {
		if h.Users > peak.Users {
			peak = h
		}
	}
	peak.Label = Label(peak.Hour)
	return peak
}

func HighActivityHours(threshold int) int {
	n := 0
	for _, h := range hourly {
		if h.Users >= threshold {
			n++
		}
	}
	return n
}

func SuggestionsForHour(hour int) []models.SchedulingSuggestion {
	return []models.SchedulingSuggestion{{
		HourUTC:    hour,
		Rationale:  fmt.Sprintf("Users' peak active hour is around %d:00", hour),
		Confidence: suggestionConfidence,
	}}
}
