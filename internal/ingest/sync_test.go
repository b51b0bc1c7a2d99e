package ingest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/ockno-signals/internal/config"
	"github.com/AngelCh415/ockno-signals/internal/models"
	"github.com/AngelCh415/ockno-signals/internal/store"
)

// helper: hace la petición y devuelve código HTTP + error de red (si hubo)
func fetchURL(c HTTPClient, url string) (int, error) {
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	resp, err := c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

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

	_, err := fetchURL(NewHTTPClient(50*time.Millisecond), srv.URL)
	assert.Error(t, err)
}

func newTestSyncer(t *testing.T, cfg config.Config) (*Syncer, *store.MemoryStore, models.Client) {
	t.Helper()
	st := store.NewMemoryStore(store.NewSequenceGenerator())
	cl, err := st.AddClient("Acme Corp")
	require.NoError(t, err)
	cfg.RetryBase = time.Millisecond
	if cfg.RetryMax == 0 {
		cfg.RetryMax = 2
	}
	s := NewSyncer(NewHTTPClient(2*time.Second), st, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	return s, st, cl
}

func TestSyncCampaignsNormalizes(t *testing.T) {
	var gotClient string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClient = r.URL.Query().Get("client_id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":" c1 ","name":"Search - Brand","status":"ENABLED"},
			{"id":"c1","name":"duplicate","status":"enabled"},
			{"id":"c3","name":"Display - Retargeting","status":"paused"},
			{"id":"","name":"no id"},
			{"id":"c4","name":"old","status":"removed"},
			{"id":"c5","name":"  ","status":""}
		]`))
	}))
	defer srv.Close()

	s, st, cl := newTestSyncer(t, config.Config{AdsURL: srv.URL + "/campaigns?account=1"})

	n, err := s.SyncCampaigns(context.Background(), cl.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, cl.ID, gotClient)

	tn, err := st.Tenant(cl.ID)
	require.NoError(t, err)
	c1, ok := tn.Campaigns.Campaign("c1")
	require.True(t, ok)
	assert.Equal(t, models.Campaign{ID: "c1", Name: "Search - Brand", Status: models.CampaignEnabled}, c1)
	c3, _ := tn.Campaigns.Campaign("c3")
	assert.Equal(t, models.CampaignPaused, c3.Status)
	c5, _ := tn.Campaigns.Campaign("c5")
	assert.Equal(t, "c5", c5.Name)
	_, ok = tn.Campaigns.Campaign("c4")
	assert.False(t, ok)
}

func TestSyncCampaignsRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"id":"c1","name":"Search - Brand","status":"enabled"}]`))
	}))
	defer srv.Close()

	s, _, cl := newTestSyncer(t, config.Config{AdsURL: srv.URL})
	n, err := s.SyncCampaigns(context.Background(), cl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSyncCampaignsGivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s, st, cl := newTestSyncer(t, config.Config{AdsURL: srv.URL})
	tn, _ := st.Tenant(cl.ID)
	tn.Campaigns.Replace([]models.Campaign{{ID: "keep", Name: "Keep"}})

	_, err := s.SyncCampaigns(context.Background(), cl.ID)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	_, ok := tn.Campaigns.Campaign("keep")
	assert.True(t, ok, "directory must survive a failed sync")
}

func TestSyncCampaignsErrors(t *testing.T) {
	s, _, cl := newTestSyncer(t, config.Config{})

	_, err := s.SyncCampaigns(context.Background(), cl.ID)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.SyncCampaigns(context.Background(), "nope")
	assert.True(t, store.IsNotFoundError(err))
}

func TestExportClustersSignsPayload(t *testing.T) {
	var (
		body []byte
		sig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		sig = r.Header.Get("X-Signature")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s, st, cl := newTestSyncer(t, config.Config{SinkURL: srv.URL, SinkSecret: "s3cr3t"})
	s.now = func() time.Time { return time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC) }
	tn, _ := st.Tenant(cl.ID)
	_, err := tn.CreateCluster("Plumbing", "")
	require.NoError(t, err)

	n, err := s.ExportClusters(context.Background(), cl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, Sign("s3cr3t", body), sig)

	var p exportPayload
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, cl.ID, p.ClientID)
	assert.Equal(t, uint64(1), p.Version)
	require.Len(t, p.Clusters, 1)
	assert.Equal(t, "Plumbing", p.Clusters[0].Name)
	assert.Equal(t, "2025-08-01T12:00:00Z", p.ExportedAt.Format(time.RFC3339))
}

func TestExportClustersFailures(t *testing.T) {
	s, _, cl := newTestSyncer(t, config.Config{})
	_, err := s.ExportClusters(context.Background(), cl.ID)
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	s, _, cl = newTestSyncer(t, config.Config{SinkURL: srv.URL, SinkSecret: "x"})
	_, err = s.ExportClusters(context.Background(), cl.ID)
	assert.ErrorIs(t, err, ErrSinkRejected)
}
