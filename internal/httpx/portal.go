package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AngelCh415/voyager-portal/internal/actions"
	"github.com/AngelCh415/voyager-portal/internal/backend"
	"github.com/AngelCh415/voyager-portal/internal/chart"
	"github.com/AngelCh415/voyager-portal/internal/metrics"
	"github.com/AngelCh415/voyager-portal/internal/models"
	"github.com/AngelCh415/voyager-portal/internal/scheduling"
	"github.com/AngelCh415/voyager-portal/internal/storefront"
	"github.com/AngelCh415/voyager-portal/internal/telemetry"
	"github.com/AngelCh415/voyager-portal/internal/utils"
)

func (h *handlers) segments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Views.SegmentsOverview())
}

func (h *handlers) segmentsDonut(w http.ResponseWriter, r *http.Request) {
	h.donut(w, r, h.Views.SegmentsOverview().Arcs)
}

func (h *handlers) acceptsDonut(w http.ResponseWriter, r *http.Request) {
	h.donut(w, r, h.Views.PayloadArcs())
}

func (h *handlers) donut(w http.ResponseWriter, r *http.Request, arcs []models.ArcSlice) {
	size := chart.DefaultSize
	if s := r.URL.Query().Get("size"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 || v > 4096 {
			writeError(w, http.StatusBadRequest, "size must be a number between 1 and 4096")
			return
		}
		size = v
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := chart.Donut(w, arcs, size); err != nil {
		h.log.Error("donut render", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
	}
}

func (h *handlers) campaignStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Views.CampaignStats())
}

func (h *handlers) segmentBreakdown(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Views.SegmentBreakdown(chi.URLParam(r, "segment"))
	if errors.Is(err, metrics.ErrUnknownSegment) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, rows)
}

func (h *handlers) campaigns(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Views.QueryCampaigns(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, rows)
}

func (h *handlers) reload(w http.ResponseWriter, r *http.Request) {
	p, err := h.Loader.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	src, at := h.Store.PayloadInfo()
	writeJSON(w, map[string]any{
		"source":    src,
		"loaded_at": at,
		"segments":  len(p.Segments),
		"campaigns": len(p.Campaigns),
	})
}

func (h *handlers) scheduling(w http.ResponseWriter, r *http.Request) {
	hour := scheduling.DefaultHour
	if s := r.URL.Query().Get("hour"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, scheduling.ErrInvalidHour.Error())
			return
		}
		hour = v
	}
	view, err := scheduling.BuildView(hour)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, view)
}

func (h *handlers) pending(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Notifier.PendingApprovals(r.Context())
	if err != nil {
		h.backendError(w, r, "pending approvals", err)
		return
	}
	if resp.Campaigns == nil {
		resp.Campaigns = []models.PendingCampaign{}
	}
	writeJSON(w, resp)
}

func (h *handlers) approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	manager, ok := h.managerID(w, r)
	if !ok {
		return
	}
	h.guarded(w, r, "approve:"+id, func() (any, string, error) {
		err := h.Notifier.Approve(r.Context(), id, manager)
		return map[string]string{"campaign_id": id, "status": "approved"}, fmt.Sprintf("Campaign %s approved", id), err
	})
}

func (h *handlers) reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	manager, ok := h.managerID(w, r)
	if !ok {
		return
	}
	reason := r.URL.Query().Get("reason")
	h.guarded(w, r, "reject:"+id, func() (any, string, error) {
		err := h.Notifier.Reject(r.Context(), id, manager, reason)
		return map[string]string{"campaign_id": id, "status": "rejected"}, fmt.Sprintf("Campaign %s rejected", id), err
	})
}

func (h *handlers) selectOption(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "user id must be a positive integer")
		return
	}
	discount, err := strconv.ParseFloat(r.URL.Query().Get("selected_discount"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "selected_discount is required")
		return
	}
	manager, ok := h.managerID(w, r)
	if !ok {
		return
	}
	h.guarded(w, r, "select:"+strconv.Itoa(userID), func() (any, string, error) {
		err := h.Notifier.SelectOption(r.Context(), userID, discount, manager)
		return map[string]any{"user_id": userID, "selected_discount": discount},
			fmt.Sprintf("Discount %.0f%% selected for user %d", discount, userID), err
	})
}

// simulate is the portal's demo trigger. An empty body uses the demo cart.
func (h *handlers) simulate(w http.ResponseWriter, r *http.Request) {
	req := models.CartAbandonmentTriggerRequest{
		UserID:    12345,
		CartItems: []string{"Istanbul Hotel - 2 nights", "Breakfast included"},
		Hours:     2,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	h.guarded(w, r, "simulate", func() (any, string, error) {
		resp, err := h.trigger(r, req)
		return resp, fmt.Sprintf("Campaign %s created and queued for approval", resp.CampaignID), err
	})
}

func (h *handlers) backendOverview(w http.ResponseWriter, r *http.Request) {
	if h.Overview == nil {
		writeError(w, http.StatusNotFound, "no backend configured")
		return
	}
	ov, err := h.Overview(r.Context())
	if err != nil {
		h.backendError(w, r, "backend overview", err)
		return
	}
	writeJSON(w, ov)
}

func (h *handlers) flash(w http.ResponseWriter, r *http.Request) {
	m, ok := h.Flash.Current(h.Now())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, m)
}

func (h *handlers) dismissFlash(w http.ResponseWriter, r *http.Request) {
	h.Flash.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) managerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	m := r.URL.Query().Get("manager_id")
	if m == "" {
		m = h.Config.ManagerID
	}
	if m == "" {
		writeError(w, http.StatusBadRequest, "manager_id is required")
		return "", false
	}
	return m, true
}

// trigger sends one cart abandonment request and counts the outcome.
func (h *handlers) trigger(r *http.Request, req models.CartAbandonmentTriggerRequest) (models.CartAbandonmentTriggerResponse, error) {
	resp, err := h.Notifier.TriggerCartAbandonment(r.Context(), req)
	if h.Metrics != nil {
		h.Metrics.Triggers.WithLabelValues(telemetry.Outcome(err)).Inc()
	}
	return resp, err
}

// guarded runs fn behind the control's in-flight guard and turns the
// result into a flash message plus a JSON reply.
func (h *handlers) guarded(w http.ResponseWriter, r *http.Request, key string, fn func() (any, string, error)) {
	var (
		out any
		msg string
	)
	err := h.guards.Get(key).Do(r.Context(), func(context.Context) error {
		var err error
		out, msg, err = fn()
		return err
	})
	switch {
	case errors.Is(err, actions.ErrInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		h.Flash.Set(h.Now(), actions.LevelError, err.Error())
		h.backendError(w, r, key, err)
	default:
		h.Flash.Set(h.Now(), actions.LevelSuccess, msg)
		writeJSON(w, out)
	}
}

func (h *handlers) backendError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error("backend call failed",
		slog.String("rid", utils.RID(r.Context())),
		slog.String("op", op),
		slog.String("err", err.Error()))

	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrCampaignNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storefront.ErrEmptyCart), errors.Is(err, backend.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		writeError(w, apiErr.StatusCode, apiErr.Detail)
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
