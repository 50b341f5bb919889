package metrics

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/AngelCh415/voyager-portal/internal/chart"
	"github.com/AngelCh415/voyager-portal/internal/models"
	"github.com/AngelCh415/voyager-portal/internal/store"
)

const TopCampaigns = 6

var (
	ErrUnknownSegment = errors.New("unknown segment")
	ErrUnknownSort    = errors.New("unknown sort field")
)

// Service builds dashboard views from the current store snapshot. Nothing
// is cached; every call recomputes from the rows.
type Service struct {
	st       *store.MemoryStore
	segments []models.SegmentOverview
}

func NewService(st *store.MemoryStore, segments []models.SegmentOverview) *Service {
	return &Service{st: st, segments: segments}
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func csvSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		p = norm(p)
		if p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}

// BarRow is one labelled stacked accept/reject bar.
type BarRow struct {
	Name       string          `json:"name"`
	Shown      float64         `json:"shown"`
	Accepted   float64         `json:"accepted"`
	AcceptRate *float64        `json:"accept_rate"`
	RateLabel  string          `json:"rate_label"`
	Color      string          `json:"color,omitempty"`
	Bar        chart.Fractions `json:"bar"`
}

type CampaignStats struct {
	TotalOffers      float64  `json:"total_offers"`
	TotalAccepted    float64  `json:"total_accepted"`
	OverallRate      float64  `json:"overall_rate"`
	OverallRateLabel string   `json:"overall_rate_label"`
	TopCampaigns     []BarRow `json:"top_campaigns"`
	Segments         []BarRow `json:"segments"`
}

func (s *Service) CampaignStats() CampaignStats {
	p := s.st.Payload()
	offers := TotalOf(p.Segments, func(r models.SegmentRow) float64 { return r.Offers })
	accepted := TotalOf(p.Segments, func(r models.SegmentRow) float64 { return r.Accepts })
	rate := OverallRate(accepted, offers)

	top := TopN(p.Campaigns, func(r models.CampaignRow) float64 { return r.Shown }, TopCampaigns)
	segs := SortedDesc(p.Segments, func(r models.SegmentRow) float64 { return r.Offers })

	segRows := make([]BarRow, 0, len(segs))
	for _, r := range segs {
		name := SegmentName(r.Segment)
		b := barRow(name, r.Offers, r.Accepts, r.AcceptRate)
		b.Color = ColorForSegment(name)
		segRows = append(segRows, b)
	}
	return CampaignStats{
		TotalOffers:      offers,
		TotalAccepted:    accepted,
		OverallRate:      rate,
		OverallRateLabel: Percent(&rate),
		TopCampaigns:     campaignBars(top),
		Segments:         segRows,
	}
}

// SegmentBreakdown lists a segment's campaigns by shown, descending.
func (s *Service) SegmentBreakdown(segment string) ([]BarRow, error) {
	p := s.st.Payload()
	rows, ok := p.BreakdownBySegment[segment]
	if !ok {
		return nil, ErrUnknownSegment
	}
	return campaignBars(SortedDesc(rows, func(r models.CampaignRow) float64 { return r.Shown })), nil
}

// QueryCampaigns filters, sorts and pages the global campaign list.
// Params: campaign (csv), sort (shown|accepted|acceptRate), limit, offset.
func (s *Service) QueryCampaigns(v url.Values) ([]BarRow, error) {
	sortBy := v.Get("sort")
	if sortBy == "" {
		sortBy = "shown"
	}
	key, ok := CampaignField(sortBy)
	if !ok {
		return nil, ErrUnknownSort
	}
	names := csvSet(v.Get("campaign"))
	limit := atoiDef(v.Get("limit"), 100)
	offset := atoiDef(v.Get("offset"), 0)

	var rows []models.CampaignRow
	for _, r := range s.st.Payload().Campaigns {
		if len(names) > 0 {
			if _, ok := names[norm(SegmentName(r.Campaign))]; !ok {
				continue
			}
		}
		rows = append(rows, r)
	}
	rows = SortedDesc(rows, key) // stable: ties keep payload order
	limit, offset = clampLimitOffset(limit, offset, len(rows))
	return campaignBars(paginate(rows, limit, offset)), nil
}

type SegmentCard struct {
	models.SegmentOverview
	Color        string `json:"color"`
	PercentLabel string `json:"percent_label"`
	UsersLabel   string `json:"users_label"`
}

type SegmentsOverview struct {
	Count             int                 `json:"count"`
	TotalUsers        float64             `json:"total_users"`
	TotalUsersLabel   string              `json:"total_users_label"`
	LargestPercentage float64             `json:"largest_percentage"`
	AverageSize       float64             `json:"average_size"`
	Cards             []SegmentCard       `json:"cards"`
	Slices            []models.ChartSlice `json:"slices"`
	Arcs              []models.ArcSlice   `json:"arcs"`
}

func (s *Service) SegmentsOverview() SegmentsOverview {
	users := func(o models.SegmentOverview) float64 { return float64(o.UserCount) }
	total := TotalOf(s.segments, users)

	cards := make([]SegmentCard, 0, len(s.segments))
	for _, o := range s.segments {
		pct := o.Percentage
		cards = append(cards, SegmentCard{
			SegmentOverview: o,
			Color:           ColorForSegment(o.Title),
			PercentLabel:    Percent(&pct),
			UsersLabel:      FormatCount(float64(o.UserCount)),
		})
	}
	slices := ToChartSlices(s.segments,
		func(o models.SegmentOverview) string { return o.Title },
		users,
		func(o models.SegmentOverview) string { return ColorForSegment(o.Title) })

	return SegmentsOverview{
		Count:             len(s.segments),
		TotalUsers:        total,
		TotalUsersLabel:   FormatCount(total),
		LargestPercentage: Max(s.segments, func(o models.SegmentOverview) float64 { return o.Percentage }),
		AverageSize:       math.Round(Average(s.segments, users)),
		Cards:             cards,
		Slices:            slices,
		Arcs:              ToArcSlices(slices),
	}
}

// PayloadArcs is the donut of accepted offers per payload segment.
func (s *Service) PayloadArcs() []models.ArcSlice {
	rows := s.st.Payload().Segments
	return ToArcSlices(ToChartSlices(rows,
		func(r models.SegmentRow) string { return SegmentName(r.Segment) },
		func(r models.SegmentRow) float64 { return r.Accepts },
		func(r models.SegmentRow) string { return ColorForSegment(SegmentName(r.Segment)) }))
}

func campaignBars(rows []models.CampaignRow) []BarRow {
	out := make([]BarRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, barRow(SegmentName(r.Campaign), r.Shown, r.Accepted, r.AcceptRate))
	}
	return out
}

func barRow(name string, shown, accepted float64, rate *float64) BarRow {
	return BarRow{
		Name:       name,
		Shown:      shown,
		Accepted:   accepted,
		AcceptRate: rate,
		RateLabel:  Percent(rate),
		Bar:        chart.StackedBarFractions(shown, accepted),
	}
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	} // hard cap
	if offset > n {
		offset = n
	}
	return limit, offset
}
