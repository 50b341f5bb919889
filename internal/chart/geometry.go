package chart

import (
	"math"
	"strconv"
	"strings"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path describes an annulus wedge: outer arc start->end, line inward,
// inner arc end->start, close.
type Path struct {
	OuterStart  Point   `json:"outer_start"`
	OuterEnd    Point   `json:"outer_end"`
	InnerEnd    Point   `json:"inner_end"`
	InnerStart  Point   `json:"inner_start"`
	InnerRadius float64 `json:"inner_radius"`
	OuterRadius float64 `json:"outer_radius"`
	LargeArc    int     `json:"large_arc"`
}

// ArcPath builds the wedge between two angles in degrees, 0° at 3 o'clock,
// growing clockwise in screen coordinates.
func ArcPath(center Point, innerRadius, outerRadius, startAngleDeg, endAngleDeg float64) Path {
	large := 0
	if endAngleDeg-startAngleDeg > 180 {
		large = 1
	}
	return Path{
		OuterStart:  polar(center, outerRadius, startAngleDeg),
		OuterEnd:    polar(center, outerRadius, endAngleDeg),
		InnerEnd:    polar(center, innerRadius, endAngleDeg),
		InnerStart:  polar(center, innerRadius, startAngleDeg),
		InnerRadius: innerRadius,
		OuterRadius: outerRadius,
		LargeArc:    large,
	}
}

// String renders the path as an SVG "d" attribute.
func (p Path) String() string {
	var b strings.Builder
	flag := strconv.Itoa(p.LargeArc)
	b.WriteString("M " + pt(p.OuterStart))
	b.WriteString(" A " + num(p.OuterRadius) + " " + num(p.OuterRadius) + " 0 " + flag + " 1 " + pt(p.OuterEnd))
	b.WriteString(" L " + pt(p.InnerEnd))
	b.WriteString(" A " + num(p.InnerRadius) + " " + num(p.InnerRadius) + " 0 " + flag + " 0 " + pt(p.InnerStart))
	b.WriteString(" Z")
	return b.String()
}

type Fractions struct {
	Accepted float64 `json:"accepted_fraction"`
	Rejected float64 `json:"rejected_fraction"`
}

// StackedBarFractions splits a bar into accepted and rejected parts.
// accepted is clamped to [0, shown]; shown == 0 yields two empty parts.
func StackedBarFractions(shownValue, acceptedValue float64) Fractions {
	shown := nonNeg(shownValue)
	acc := math.Max(0, math.Min(nonNeg(acceptedValue), shown))
	rej := math.Max(0, shown-acc)
	total := math.Max(1, acc+rej)
	return Fractions{Accepted: acc / total, Rejected: rej / total}
}

// BarHeights scales values against their maximum into [minBar, height].
func BarHeights(values []float64, height, minBar float64) []float64 {
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, nonNeg(v))
	}
	out := make([]float64, len(values))
	for i, v := range values {
		h := 0.0
		if peak > 0 {
			h = math.Round(nonNeg(v) / peak * height)
		}
		out[i] = math.Max(minBar, h)
	}
	return out
}

// AxisTicks returns the y-axis guide labels from top to bottom.
func AxisTicks(peak float64) []float64 {
	peak = nonNeg(peak)
	return []float64{
		peak,
		math.Round(peak * 0.75),
		math.Round(peak * 0.5),
		math.Round(peak * 0.25),
		0,
	}
}

func polar(c Point, r, deg float64) Point {
	rad := deg * math.Pi / 180
	return Point{X: c.X + r*math.Cos(rad), Y: c.Y + r*math.Sin(rad)}
}

func pt(p Point) string { return num(p.X) + " " + num(p.Y) }

func num(f float64) string {
	f = math.Round(f*1000) / 1000
	if f == 0 {
		f = 0 // drop negative zero
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func nonNeg(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
