package ingest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/voyager-portal/internal/config"
	"github.com/AngelCh415/voyager-portal/internal/metrics"
	"github.com/AngelCh415/voyager-portal/internal/models"
	"github.com/AngelCh415/voyager-portal/internal/store"
	"github.com/AngelCh415/voyager-portal/internal/telemetry"
	"github.com/AngelCh415/voyager-portal/internal/utils"
)

// fetchURL performs the request and returns the status code or the transport error.
func fetchURL(c HTTPClient, url string) (int, error) {
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	resp, err := c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }

func TestHTTPClientHandles500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	code, err := fetchURL(NewHTTPClient(2*time.Second), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestHTTPClientHandlesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := fetchURL(NewHTTPClient(100*time.Millisecond), srv.URL)
	assert.Error(t, err)
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"segments":[{"segment":"x","offers":4,"accepts":1}]}`))
	}))
	defer srv.Close()

	var p models.Payload
	err := getJSONWithBackoff(context.Background(), NewHTTPClient(time.Second), srv.URL, &p, utils.NewBackoff(time.Millisecond, 2))
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
	require.Len(t, p.Segments, 1)
}

func TestGetJSONDoesNotRetry404(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var p models.Payload
	err := getJSONWithBackoff(context.Background(), NewHTTPClient(time.Second), srv.URL, &p, utils.NewBackoff(time.Millisecond, 2))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), hits.Load())

	assert.Error(t, getJSON(context.Background(), NewHTTPClient(time.Second), "", &p))
}

func TestGetJSONMalformedBodyIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"segments":[{"segment":"x","offers":4},}`))
	}))
	defer srv.Close()

	p := models.Payload{Campaigns: []models.CampaignRow{{Shown: 1}}}
	err := getJSONWithBackoff(context.Background(), NewHTTPClient(time.Second), srv.URL, &p, utils.NewBackoff(time.Millisecond, 2))
	var syn *json.SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, int32(1), hits.Load())
	assert.Empty(t, p.Segments, "dst untouched on failure")
	assert.Len(t, p.Campaigns, 1)
}

func TestGetJSONRetryStartsFromFreshValue(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			// headers promise more bytes than are sent, so the read fails mid-body
			w.Header().Set("Content-Length", "100")
			w.Write([]byte(`{"campaigns":[{"campaign":"stale","shown":9}],"segm`))
			return
		}
		w.Write([]byte(`{"segments":[{"segment":"x","offers":4,"accepts":1}]}`))
	}))
	defer srv.Close()

	var p models.Payload
	err := getJSONWithBackoff(context.Background(), NewHTTPClient(time.Second), srv.URL, &p, utils.NewBackoff(time.Millisecond, 2))
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.Len(t, p.Segments, 1)
	assert.Empty(t, p.Campaigns, "nothing carried over from the failed attempt")
}

func TestEmbeddedPayloadDecodes(t *testing.T) {
	p, err := Embedded()
	require.NoError(t, err)
	assert.NotEmpty(t, p.Segments)
	assert.NotEmpty(t, p.Campaigns)
	for _, s := range p.Segments {
		if s.Segment != nil {
			assert.Contains(t, p.BreakdownBySegment, *s.Segment)
		}
	}
}

func TestNormalize(t *testing.T) {
	name := "  Premium Customers "
	blank := " "
	stale := 0.9
	in := models.Payload{
		Segments: []models.SegmentRow{
			{Segment: &name, Offers: 200, Accepts: 50, AcceptRate: &stale},
			{Segment: &blank, Offers: 0, Accepts: 0, AcceptRate: &stale},
			{Offers: -3, Accepts: -1},
		},
		BreakdownBySegment: map[string][]models.CampaignRow{
			" Premium Customers": {{Shown: 10, Accepted: 4}},
		},
		Campaigns: []models.CampaignRow{{Shown: 0, Accepted: 2}},
	}
	out := Normalize(in)

	require.Len(t, out.Segments, 3)
	assert.Equal(t, "Premium Customers", *out.Segments[0].Segment)
	require.NotNil(t, out.Segments[0].AcceptRate)
	assert.Equal(t, 0.25, *out.Segments[0].AcceptRate)
	assert.Nil(t, out.Segments[1].Segment)
	assert.Nil(t, out.Segments[1].AcceptRate)
	assert.Equal(t, 0.0, out.Segments[2].Offers)

	require.Contains(t, out.BreakdownBySegment, "Premium Customers")
	assert.Equal(t, 0.4, *out.BreakdownBySegment["Premium Customers"][0].AcceptRate)
	assert.Nil(t, out.Campaigns[0].AcceptRate)

	assert.Equal(t, 0.9, *in.Segments[0].AcceptRate, "input untouched")
	assert.Equal(t, "  Premium Customers ", *in.Segments[0].Segment)
}

func TestLoaderSources(t *testing.T) {
	m := telemetry.New()

	t.Run("embedded", func(t *testing.T) {
		st := store.NewMemoryStore()
		l := NewLoader(NewHTTPClient(time.Second), st, quietLogger(), config.Defaults(), m)
		assert.Equal(t, SourceEmbedded, l.Source())
		_, err := l.Load(context.Background())
		require.NoError(t, err)
		src, _ := st.PayloadInfo()
		assert.Equal(t, SourceEmbedded, src)

		offers, _ := metrics.SegmentField("offers")
		assert.Greater(t, metrics.TotalOf(st.Payload().Segments, offers), 0.0)
	})

	t.Run("file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "payload.json")
		require.NoError(t, os.WriteFile(p, []byte(`{"segments":[],"campaigns":[{"campaign":"a","shown":3,"accepted":1}]}`), 0o600))
		cfg := config.Defaults()
		cfg.PayloadPath = p
		st := store.NewMemoryStore()
		got, err := NewLoader(NewHTTPClient(time.Second), st, quietLogger(), cfg, m).Load(context.Background())
		require.NoError(t, err)
		require.Len(t, got.Campaigns, 1)
		assert.NotNil(t, st.Payload().BreakdownBySegment)
	})

	t.Run("url failure keeps previous snapshot", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}))
		defer srv.Close()

		st := store.NewMemoryStore()
		st.SetPayload(models.Payload{Campaigns: []models.CampaignRow{{Shown: 1}}}, SourceEmbedded, time.Now())
		cfg := config.Defaults()
		cfg.PayloadURL = srv.URL
		_, err := NewLoader(NewHTTPClient(time.Second), st, quietLogger(), cfg, m).Load(context.Background())
		assert.Error(t, err)
		assert.Len(t, st.Payload().Campaigns, 1)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.PayloadLoads.WithLabelValues(SourceURL, "error")))
	})
}
