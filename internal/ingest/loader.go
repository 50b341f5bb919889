package ingest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/AngelCh415/voyager-portal/internal/config"
	"github.com/AngelCh415/voyager-portal/internal/metrics"
	"github.com/AngelCh415/voyager-portal/internal/models"
	"github.com/AngelCh415/voyager-portal/internal/store"
	"github.com/AngelCh415/voyager-portal/internal/telemetry"
)

//go:embed data/campaign_stats_payload.json
var embeddedPayload []byte

const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceURL      = "url"
)

// Loader fills the store with the campaign stats payload from the
// configured source: URL, then file, then the bundled copy.
type Loader struct {
	c   HTTPClient
	st  *store.MemoryStore
	log *slog.Logger
	cfg config.Config
	m   *telemetry.Metrics
	now func() time.Time
}

func NewLoader(c HTTPClient, st *store.MemoryStore, log *slog.Logger, cfg config.Config, m *telemetry.Metrics) *Loader {
	return &Loader{c: c, st: st, log: log, cfg: cfg, m: m, now: time.Now}
}

func (l *Loader) Source() string {
	switch {
	case l.cfg.PayloadURL != "":
		return SourceURL
	case l.cfg.PayloadPath != "":
		return SourceFile
	}
	return SourceEmbedded
}

// Load reads, normalizes and stores the payload. On error the previous
// snapshot stays in place.
func (l *Loader) Load(ctx context.Context) (models.Payload, error) {
	src := l.Source()
	p, err := l.read(ctx, src)
	if l.m != nil {
		l.m.PayloadLoads.WithLabelValues(src, telemetry.Outcome(err)).Inc()
	}
	if err != nil {
		l.log.Error("payload load failed", slog.String("source", src), slog.String("err", err.Error()))
		return models.Payload{}, err
	}
	p = Normalize(p)
	l.st.SetPayload(p, src, l.now())
	l.log.Info("payload loaded",
		slog.String("source", src),
		slog.Int("segments", len(p.Segments)),
		slog.Int("campaigns", len(p.Campaigns)))
	return p, nil
}

func (l *Loader) read(ctx context.Context, src string) (models.Payload, error) {
	var p models.Payload
	switch src {
	case SourceURL:
		if err := GetJSONWithRetry(ctx, l.c, l.cfg.PayloadURL, &p); err != nil {
			return p, fmt.Errorf("fetch payload: %w", err)
		}
		return p, nil
	case SourceFile:
		b, err := os.ReadFile(l.cfg.PayloadPath)
		if err != nil {
			return p, fmt.Errorf("read payload: %w", err)
		}
		return Decode(b)
	}
	return Embedded()
}

// Embedded decodes the payload bundled into the binary.
func Embedded() (models.Payload, error) { return Decode(embeddedPayload) }

func Decode(b []byte) (models.Payload, error) {
	var p models.Payload
	if err := json.NewDecoder(bytes.NewReader(b)).Decode(&p); err != nil {
		return p, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}

// Normalize clamps negative counts, trims names and recomputes accept
// rates from the counts. It returns a new payload.
func Normalize(p models.Payload) models.Payload {
	out := models.Payload{
		Segments:           make([]models.SegmentRow, 0, len(p.Segments)),
		BreakdownBySegment: make(map[string][]models.CampaignRow, len(p.BreakdownBySegment)),
		Campaigns:          normalizeCampaigns(p.Campaigns),
	}
	for _, r := range p.Segments {
		r.Segment = trimName(r.Segment)
		r.Users = maxf(r.Users)
		r.Offers = maxf(r.Offers)
		r.Accepts = maxf(r.Accepts)
		r.AcceptRate = metrics.RateOf(r.Accepts, r.Offers)
		out.Segments = append(out.Segments, r)
	}
	for seg, rows := range p.BreakdownBySegment {
		out.BreakdownBySegment[strings.TrimSpace(seg)] = normalizeCampaigns(rows)
	}
	return out
}

func normalizeCampaigns(rows []models.CampaignRow) []models.CampaignRow {
	out := make([]models.CampaignRow, 0, len(rows))
	for _, r := range rows {
		r.Campaign = trimName(r.Campaign)
		r.Shown = maxf(r.Shown)
		r.Accepted = maxf(r.Accepted)
		r.AcceptRate = metrics.RateOf(r.Accepted, r.Shown)
		out = append(out, r)
	}
	return out
}

func trimName(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
