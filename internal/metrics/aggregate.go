package metrics

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AngelCh415/voyager-portal/internal/models"
)

// Segment palette, matched on the lowercased segment title.
const (
	ColorRisk     = "#ef4444"
	ColorPrice    = "#f59e0b"
	ColorHigh     = "#10b981"
	ColorPremium  = "#6366f1"
	ColorStandard = "#3b82f6"
)

const noName = "—"

var printer = message.NewPrinter(language.English)

// TotalOf sums field over rows. Missing and non-finite values count as 0.
func TotalOf[T any](rows []T, field func(T) float64) float64 {
	var sum float64
	for _, r := range rows {
		sum += finite(field(r))
	}
	return sum
}

// OverallRate returns accepted/offered, or 0 when nothing was offered.
func OverallRate(accepted, offered float64) float64 {
	if offered > 0 {
		return accepted / offered
	}
	return 0
}

// RateOf is OverallRate for payload rows: nil when offered is not positive.
func RateOf(accepted, offered float64) *float64 {
	if offered <= 0 {
		return nil
	}
	r := accepted / offered
	return &r
}

// TopN returns the first n rows ordered by key descending. Ties keep input
// order and the input slice is left untouched.
func TopN[T any](rows []T, key func(T) float64, n int) []T {
	if n <= 0 {
		return []T{}
	}
	out := make([]T, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return finite(key(out[i])) > finite(key(out[j])) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// SortedDesc is TopN without a limit.
func SortedDesc[T any](rows []T, key func(T) float64) []T {
	return TopN(rows, key, len(rows)+1)
}

func ToChartSlices[T any](rows []T, nameFn func(T) string, valueFn func(T) float64, colorFn func(T) string) []models.ChartSlice {
	out := make([]models.ChartSlice, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ChartSlice{Name: nameFn(r), Value: finite(valueFn(r)), Color: colorFn(r)})
	}
	return out
}

// ToArcSlices lays slices around a circle starting at 12 o'clock (-90°).
// Angles come from the running sum, so the last edge lands on 270° exactly.
// With a zero total every arc collapses to -90°.
func ToArcSlices(slices []models.ChartSlice) []models.ArcSlice {
	const start = -90.0
	total := 0.0
	for _, s := range slices {
		total += max0(s.Value)
	}
	out := make([]models.ArcSlice, 0, len(slices))
	cum := 0.0
	prev := start
	for _, s := range slices {
		end := start
		if total > 0 {
			cum += max0(s.Value)
			end = start + cum/total*360
		}
		out = append(out, models.ArcSlice{Name: s.Name, Value: s.Value, Color: s.Color, StartAngleDeg: prev, EndAngleDeg: end})
		prev = end
	}
	return out
}

func Max[T any](rows []T, field func(T) float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	m := math.Inf(-1)
	for _, r := range rows {
		if v := finite(field(r)); v > m {
			m = v
		}
	}
	return m
}

func Average[T any](rows []T, field func(T) float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	return TotalOf(rows, field) / float64(len(rows))
}

// Percent formats a 0..1 rate as "25.0%", or "-" when absent.
func Percent(x *float64) string {
	if x == nil || math.IsNaN(*x) || math.IsInf(*x, 0) {
		return "-"
	}
	return printer.Sprintf("%.1f%%", *x*100)
}

// FormatCount renders n with en-US thousands separators.
func FormatCount(n float64) string {
	return printer.Sprintf("%d", int64(math.Round(finite(n))))
}

func ColorForSegment(title string) string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "risk"):
		return ColorRisk
	case strings.Contains(t, "price"):
		return ColorPrice
	case strings.Contains(t, "high"):
		return ColorHigh
	case strings.Contains(t, "premium"):
		return ColorPremium
	}
	return ColorStandard
}

func SegmentName(s *string) string {
	if s == nil {
		return noName
	}
	return *s
}

// SegmentField maps a payload column name to its accessor.
func SegmentField(name string) (func(models.SegmentRow) float64, bool) {
	switch name {
	case "users":
		return func(r models.SegmentRow) float64 { return r.Users }, true
	case "offers":
		return func(r models.SegmentRow) float64 { return r.Offers }, true
	case "accepts":
		return func(r models.SegmentRow) float64 { return r.Accepts }, true
	case "acceptRate":
		return func(r models.SegmentRow) float64 { return deref(r.AcceptRate) }, true
	}
	return nil, false
}

func CampaignField(name string) (func(models.CampaignRow) float64, bool) {
	switch name {
	case "shown":
		return func(r models.CampaignRow) float64 { return r.Shown }, true
	case "accepted":
		return func(r models.CampaignRow) float64 { return r.Accepted }, true
	case "acceptRate":
		return func(r models.CampaignRow) float64 { return deref(r.AcceptRate) }, true
	}
	return nil, false
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func max0(f float64) float64 {
	f = finite(f)
	if f < 0 {
		return 0
	}
	return f
}
