package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/voyager-portal/internal/actions"
	"github.com/AngelCh415/voyager-portal/internal/backend"
	"github.com/AngelCh415/voyager-portal/internal/config"
	"github.com/AngelCh415/voyager-portal/internal/ingest"
	"github.com/AngelCh415/voyager-portal/internal/metrics"
	"github.com/AngelCh415/voyager-portal/internal/models"
	"github.com/AngelCh415/voyager-portal/internal/store"
	"github.com/AngelCh415/voyager-portal/internal/telemetry"
)

var fixedNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

type env struct {
	h   http.Handler
	svc Services
}

func newEnv(t *testing.T, notifier backend.Notifier) env {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := config.Defaults()
	st := store.NewMemoryStore()
	m := telemetry.New()
	if notifier == nil {
		backend.SeedPending(st)
		notifier = backend.NewLocal(st, log)
	}
	svc := Services{
		Config:   cfg,
		Store:    st,
		Views:    metrics.NewService(st, metrics.DefaultSegments),
		Loader:   ingest.NewLoader(ingest.NewHTTPClient(time.Second), st, log, cfg, m),
		Notifier: notifier,
		Metrics:  m,
		Flash:    actions.NewFlash(0),
		Now:      func() time.Time { return fixedNow },
	}
	return env{h: NewRouter(log, svc), svc: svc}
}

func (e env) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReadiness(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusServiceUnavailable, e.do(t, http.MethodGet, "/readyz", "").Code)

	rec = e.do(t, http.MethodPost, "/api/campaigns/reload", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	assert.Equal(t, ingest.SourceEmbedded, got["source"])

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/readyz", "").Code)
}

func TestCampaignStatsRoutes(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.svc.Loader.Load(context.Background())
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/api/campaigns/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[metrics.CampaignStats](t, rec)
	assert.Equal(t, 146730.0, stats.TotalOffers)
	assert.Equal(t, 28956.0, stats.TotalAccepted)
	assert.LessOrEqual(t, len(stats.TopCampaigns), metrics.TopCampaigns)
	for i := 1; i < len(stats.TopCampaigns); i++ {
		assert.GreaterOrEqual(t, stats.TopCampaigns[i-1].Shown, stats.TopCampaigns[i].Shown)
	}

	rec = e.do(t, http.MethodGet, "/api/campaigns/stats/High-Value%20Customers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]metrics.BarRow](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, "Flight + Hotel Bundle", rows[0].Name)

	rec = e.do(t, http.MethodGet, "/api/campaigns/stats/Nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "unknown segment")

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/campaigns?sort=bogus", "").Code)
	rec = e.do(t, http.MethodGet, "/api/campaigns?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]metrics.BarRow](t, rec), 2)
}

func TestSegmentsAndDonut(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/api/segments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ov := decode[metrics.SegmentsOverview](t, rec)
	assert.Equal(t, len(metrics.DefaultSegments), ov.Count)
	require.NotEmpty(t, ov.Arcs)
	assert.Equal(t, -90.0, ov.Arcs[0].StartAngleDeg)
	assert.InDelta(t, 270.0, ov.Arcs[len(ov.Arcs)-1].EndAngleDeg, 1e-9)

	rec = e.do(t, http.MethodGet, "/api/segments/donut.svg?size=120", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/segments/donut.svg?size=big", "").Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/campaigns/stats/donut.svg", "").Code)
}

func TestScheduling(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/api/scheduling", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Selected struct {
			Hour int `json:"hour"`
		} `json:"selected"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 14, view.Selected.Hour)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/scheduling?hour=24", "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/scheduling?hour=noon", "").Code)
}

func TestApprovalsFlow(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/api/approvals/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.PendingApprovalsResponse](t, rec).Campaigns, 2)

	rec = e.do(t, http.MethodPost, "/api/approvals/camp_001/approve?manager_id=manager_7", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/flash", "")
	require.Equal(t, http.StatusOK, rec.Code)
	msg := decode[actions.Message](t, rec)
	assert.Equal(t, actions.LevelSuccess, msg.Level)
	assert.Equal(t, "Campaign camp_001 approved", msg.Text)

	rec = e.do(t, http.MethodPost, "/api/approvals/camp_001/approve", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, actions.LevelError, decode[actions.Message](t, e.do(t, http.MethodGet, "/api/flash", "")).Level)

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/approvals/camp_002/reject?reason=too+generous", "").Code)
	assert.Empty(t, e.svc.Store.Pending())

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/api/flash", "").Code)
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodGet, "/api/flash", "").Code)
}

func TestSelectOption(t *testing.T) {
	e := newEnv(t, nil)

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/recommendations/user/12345/select-option?selected_discount=15", "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/recommendations/user/12345/select-option", "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/recommendations/user/abc/select-option?selected_discount=15", "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/api/recommendations/user/1/select-option?selected_discount=15", "").Code)
}

func TestStorefrontCartAndAbandon(t *testing.T) {
	e := newEnv(t, nil)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/store/cart/abandon", "").Code, "empty cart")

	rec := e.do(t, http.MethodPost, "/api/store/cart/items", `{"item_id":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	e.do(t, http.MethodPost, "/api/store/cart/items", `{"item_id":"1"}`)
	cart := decode[models.Cart](t, e.do(t, http.MethodGet, "/api/store/cart", ""))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 900.0, cart.Total)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/api/store/cart/items", `{"item_id":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPatch, "/api/store/cart/items/1", `{}`).Code)

	cart = decode[models.Cart](t, e.do(t, http.MethodPatch, "/api/store/cart/items/1", `{"quantity":1}`))
	assert.Equal(t, 450.0, cart.Total)

	rec = e.do(t, http.MethodPost, "/api/store/cart/abandon", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	assert.Equal(t, models.StatusPendingApproval, got["status"])
	assert.Equal(t, 1.0, testutil.ToFloat64(e.svc.Metrics.Triggers.WithLabelValues("ok")))
	assert.Len(t, e.svc.Store.Pending(), 3)

	notes := decode[[]models.Notification](t, e.do(t, http.MethodGet, "/api/store/notifications", ""))
	require.Len(t, notes, 1)
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodPost, "/api/store/notifications/"+notes[0].ID+"/read", "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/api/store/notifications/missing/read", "").Code)

	cart = decode[models.Cart](t, e.do(t, http.MethodDelete, "/api/store/cart/items/1", ""))
	assert.Empty(t, cart.Items)
}

// blockingNotifier holds triggers until release is closed.
type blockingNotifier struct {
	backend.Notifier
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingNotifier) TriggerCartAbandonment(ctx context.Context, req models.CartAbandonmentTriggerRequest) (models.CartAbandonmentTriggerResponse, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return models.CartAbandonmentTriggerResponse{CampaignID: "camp_slow", Status: models.StatusPendingApproval}, nil
}

func TestTriggerRefusedWhileInFlight(t *testing.T) {
	bn := &blockingNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	e := newEnv(t, bn)

	done := make(chan int, 1)
	go func() { done <- e.do(t, http.MethodPost, "/api/simulations/cart-abandonment", "").Code }()
	<-bn.entered

	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, "/api/simulations/cart-abandonment", "").Code)

	close(bn.release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/simulations/cart-abandonment", `{"user_id":7,"cart_items":["x"],"hours":1}`).Code)
	assert.Equal(t, 2.0, testutil.ToFloat64(e.svc.Metrics.Triggers.WithLabelValues("ok")))
}

func TestBackendOverviewAndMetrics(t *testing.T) {
	e := newEnv(t, nil)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/backend/overview", "").Code)

	rec := e.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "voyager_portal_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/api/backend/overview"`)
}

func TestConcurrentCartAddsKeepEveryItem(t *testing.T) {
	e := newEnv(t, nil)
	svc := e.svc
	svc.Now = func() time.Time {
		time.Sleep(2 * time.Millisecond)
		return fixedNow
	}
	h := NewRouter(slog.New(slog.NewJSONHandler(io.Discard, nil)), svc)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/store/cart/items", strings.NewReader(`{"item_id":"1"}`)))
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	cart := decode[models.Cart](t, e.do(t, http.MethodGet, "/api/store/cart", ""))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, n, cart.Items[0].Quantity)
	assert.Equal(t, 450.0*n, cart.Total)
}

func TestSimulateWithChunkedEmptyBodyUsesDemoCart(t *testing.T) {
	e := newEnv(t, nil)

	// a reader of unknown length leaves ContentLength at -1, as with chunked uploads
	req := httptest.NewRequest(http.MethodPost, "/api/simulations/cart-abandonment", struct{ io.Reader }{strings.NewReader("")})
	require.Equal(t, int64(-1), req.ContentLength)
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	pending := e.svc.Store.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, 12345, pending[2].UserID)
	assert.Equal(t, []string{"Istanbul Hotel - 2 nights", "Breakfast included"}, pending[2].CartItems)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/simulations/cart-abandonment", `{"user_id":`).Code)
}
