// Package backend talks to the external notification service that owns
// campaign approval, segment scoring and discount recommendation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/voyager-portal/internal/ingest"
	"github.com/AngelCh415/voyager-portal/internal/models"
	"github.com/AngelCh415/voyager-portal/internal/telemetry"
	"github.com/AngelCh415/voyager-portal/internal/utils"
)

// Notifier is the approval workflow as seen by the portal.
type Notifier interface {
	TriggerCartAbandonment(ctx context.Context, req models.CartAbandonmentTriggerRequest) (models.CartAbandonmentTriggerResponse, error)
	PendingApprovals(ctx context.Context) (models.PendingApprovalsResponse, error)
	Approve(ctx context.Context, campaignID, managerID string) error
	Reject(ctx context.Context, campaignID, managerID, reason string) error
	SelectOption(ctx context.Context, userID int, discount float64, managerID string) error
}

// APIError is a non-2xx backend reply.
type APIError struct {
	Detail     string `json:"detail"`
	StatusCode int    `json:"status_code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %d: %s", e.StatusCode, e.Detail)
}

// Client calls the backend over REST. Calls are not retried.
type Client struct {
	base string
	c    ingest.HTTPClient
	log  *slog.Logger
	m    *telemetry.Metrics
}

func NewClient(baseURL string, c ingest.HTTPClient, log *slog.Logger, m *telemetry.Metrics) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), c: c, log: log, m: m}
}

func (cl *Client) TriggerCartAbandonment(ctx context.Context, req models.CartAbandonmentTriggerRequest) (models.CartAbandonmentTriggerResponse, error) {
	var out models.CartAbandonmentTriggerResponse
	err := cl.do(ctx, "trigger", http.MethodPost, "/api/notifications/triggers/cart-abandonment", nil, req, &out)
	return out, err
}

func (cl *Client) PendingApprovals(ctx context.Context) (models.PendingApprovalsResponse, error) {
	var out models.PendingApprovalsResponse
	err := cl.do(ctx, "pending", http.MethodGet, "/api/notifications/approvals/pending", nil, nil, &out)
	return out, err
}

func (cl *Client) Approve(ctx context.Context, campaignID, managerID string) error {
	q := url.Values{"manager_id": {managerID}}
	return cl.do(ctx, "approve", http.MethodPost, "/api/notifications/approvals/"+url.PathEscape(campaignID)+"/approve", q, nil, nil)
}

func (cl *Client) Reject(ctx context.Context, campaignID, managerID, reason string) error {
	q := url.Values{"manager_id": {managerID}}
	if reason != "" {
		q.Set("reason", reason)
	}
	return cl.do(ctx, "reject", http.MethodPost, "/api/notifications/approvals/"+url.PathEscape(campaignID)+"/reject", q, nil, nil)
}

func (cl *Client) SelectOption(ctx context.Context, userID int, discount float64, managerID string) error {
	q := url.Values{
		"selected_discount": {strconv.FormatFloat(discount, 'f', -1, 64)},
		"manager_id":        {managerID},
	}
	return cl.do(ctx, "select_option", http.MethodPost, "/api/notifications/recommendations/user/"+strconv.Itoa(userID)+"/select-option", q, nil, nil)
}

func (cl *Client) Health(ctx context.Context) (models.HealthResponse, error) {
	var out models.HealthResponse
	err := cl.do(ctx, "health", http.MethodGet, "/health", nil, nil, &out)
	return out, err
}

func (cl *Client) Stats(ctx context.Context) (models.StatsResponse, error) {
	var out models.StatsResponse
	err := cl.do(ctx, "stats", http.MethodGet, "/stats", nil, nil, &out)
	return out, err
}

type Overview struct {
	Health models.HealthResponse `json:"health"`
	Stats  models.StatsResponse  `json:"stats"`
}

// Overview fetches health and stats in parallel.
func (cl *Client) Overview(ctx context.Context) (Overview, error) {
	var ov Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := cl.Health(ctx)
		ov.Health = h
		return err
	})
	g.Go(func() error {
		s, err := cl.Stats(ctx)
		ov.Stats = s
		return err
	})
	return ov, g.Wait()
}

func (cl *Client) do(ctx context.Context, op, method, path string, q url.Values, body, dst any) (err error) {
	defer func() {
		if cl.m != nil {
			cl.m.BackendCalls.WithLabelValues(op, telemetry.Outcome(err)).Inc()
		}
		if err != nil && cl.log != nil {
			cl.log.Error("backend call failed",
				slog.String("op", op),
				slog.String("rid", utils.RID(ctx)),
				slog.String("err", err.Error()))
		}
	}()

	u := cl.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if rid := utils.RID(ctx); rid != "" {
		req.Header.Set(utils.RequestIDHeader, rid)
	}
	if cl.log != nil {
		cl.log.Debug("backend call", slog.String("method", method), slog.String("path", path))
	}

	resp, err := cl.c.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", op, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	e := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &body) == nil {
		e.Detail = body.Detail
		if e.Detail == "" {
			e.Detail = body.Message
		}
	}
	if e.Detail == "" {
		e.Detail = strings.TrimSpace(string(b))
	}
	if e.Detail == "" {
		e.Detail = http.StatusText(resp.StatusCode)
	}
	return e
}
