package chart

import (
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/AngelCh415/voyager-portal/internal/models"
)

const (
	DefaultSize = 240.0
	holeRatio   = 0.6
	// a full circle has coincident arc endpoints, which SVG draws as nothing
	fullSpan = 359.999
)

type Wedge struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Value float64 `json:"value"`
	D     string  `json:"d"`
}

// Wedges turns arcs into drawable paths for a donut of the given size.
// Zero-span arcs are skipped.
func Wedges(arcs []models.ArcSlice, size float64) []Wedge {
	if size <= 0 {
		size = DefaultSize
	}
	c := Point{X: size / 2, Y: size / 2}
	outer := size/2 - 4
	inner := outer * holeRatio
	out := make([]Wedge, 0, len(arcs))
	for _, a := range arcs {
		span := a.EndAngleDeg - a.StartAngleDeg
		if span <= 0 {
			continue
		}
		end := a.EndAngleDeg
		if span >= 360 {
			end = a.StartAngleDeg + fullSpan
		}
		p := ArcPath(c, inner, outer, a.StartAngleDeg, end)
		out = append(out, Wedge{Name: a.Name, Color: a.Color, Value: a.Value, D: p.String()})
	}
	return out
}

// Donut draws arcs as a ring chart: one filled sector per non-empty arc,
// then the hole painted over the centre. Sectors are drawn in steps of at
// most 180 degrees so a full ring keeps distinct arc endpoints.
func Donut(w io.Writer, arcs []models.ArcSlice, size float64) error {
	if size <= 0 {
		size = DefaultSize
	}
	px := int(math.Round(size))
	r, err := gochart.SVG(px, px)
	if err != nil {
		return err
	}
	cx, cy := px/2, px/2
	outer := size/2 - 4

	for _, a := range arcs {
		span := math.Min(a.EndAngleDeg-a.StartAngleDeg, 360)
		if span <= 0 {
			continue
		}
		r.SetFillColor(hexColor(a.Color))
		r.SetStrokeColor(drawing.ColorWhite)
		r.SetStrokeWidth(1)
		r.MoveTo(cx, cy)
		start := a.StartAngleDeg
		for span > 0 {
			step := math.Min(span, 180)
			r.ArcTo(cx, cy, outer, outer, gochart.DegreesToRadians(start), gochart.DegreesToRadians(step))
			start += step
			span -= step
		}
		r.LineTo(cx, cy)
		r.Close()
		r.FillStroke()
	}

	r.SetFillColor(drawing.ColorWhite)
	r.SetStrokeColor(drawing.ColorWhite)
	r.SetStrokeWidth(0)
	r.Circle(outer*holeRatio, cx, cy)
	return r.Save(w)
}

func hexColor(s string) drawing.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 3 && len(s) != 6 {
		return drawing.ColorBlack
	}
	return drawing.ColorFromHex(s)
}
