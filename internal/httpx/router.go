package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AngelCh415/voyager-portal/internal/actions"
	"github.com/AngelCh415/voyager-portal/internal/backend"
	"github.com/AngelCh415/voyager-portal/internal/config"
	"github.com/AngelCh415/voyager-portal/internal/ingest"
	"github.com/AngelCh415/voyager-portal/internal/metrics"
	"github.com/AngelCh415/voyager-portal/internal/store"
	"github.com/AngelCh415/voyager-portal/internal/telemetry"
	"github.com/AngelCh415/voyager-portal/internal/utils"
)

// Services is everything the handlers need.
type Services struct {
	Config   config.Config
	Store    *store.MemoryStore
	Views    *metrics.Service
	Loader   *ingest.Loader
	Notifier backend.Notifier
	// Overview is nil when no remote backend is configured.
	Overview func(ctx context.Context) (backend.Overview, error)
	Metrics  *telemetry.Metrics
	Flash    *actions.Flash
	Now      func() time.Time
}

type handlers struct {
	Services
	log    *slog.Logger
	guards actions.Guards
}

func NewRouter(log *slog.Logger, svc Services) http.Handler {
	if svc.Now == nil {
		svc.Now = time.Now
	}
	if svc.Flash == nil {
		svc.Flash = actions.NewFlash(actions.FlashTTL)
	}
	h := &handlers{Services: svc, log: log}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))
	mux.Use(middleware.Recoverer)
	if svc.Metrics != nil {
		mux.Use(svc.Metrics.Middleware)
		mux.Method(http.MethodGet, "/metrics", svc.Metrics.Handler())
	}

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", h.ready)

	mux.Route("/api", func(r chi.Router) {
		r.Get("/segments", h.segments)
		r.Get("/segments/donut.svg", h.segmentsDonut)
		r.Get("/campaigns", h.campaigns)
		r.Get("/campaigns/stats", h.campaignStats)
		r.Get("/campaigns/stats/donut.svg", h.acceptsDonut)
		r.Get("/campaigns/stats/{segment}", h.segmentBreakdown)
		r.Post("/campaigns/reload", h.reload)
		r.Get("/scheduling", h.scheduling)

		r.Get("/approvals/pending", h.pending)
		r.Post("/approvals/{id}/approve", h.approve)
		r.Post("/approvals/{id}/reject", h.reject)
		r.Post("/recommendations/user/{id}/select-option", h.selectOption)
		r.Post("/simulations/cart-abandonment", h.simulate)
		r.Get("/backend/overview", h.backendOverview)
		r.Get("/flash", h.flash)
		r.Delete("/flash", h.dismissFlash)

		r.Route("/store", func(r chi.Router) {
			r.Get("/items", h.storeItems)
			r.Get("/cart", h.cart)
			r.Post("/cart/items", h.addToCart)
			r.Patch("/cart/items/{id}", h.updateCartItem)
			r.Delete("/cart/items/{id}", h.removeCartItem)
			r.Post("/cart/abandon", h.abandonCart)
			r.Get("/notifications", h.notifications)
			r.Post("/notifications/{id}/read", h.markRead)
		})
	})

	return mux
}

func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	if _, at := h.Store.PayloadInfo(); at.IsZero() {
		writeError(w, http.StatusServiceUnavailable, "payload not loaded")
		return
	}
	w.WriteHeader(200)
	w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, map[string]string{"error": msg})
}
