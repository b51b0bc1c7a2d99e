package ingest

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AngelCh415/ockno-signals/internal/config"
	"github.com/AngelCh415/ockno-signals/internal/models"
	"github.com/AngelCh415/ockno-signals/internal/store"
	"github.com/AngelCh415/ockno-signals/internal/utils"
)

var (
	ErrNotConfigured = errors.New("upstream not configured")
	ErrSinkRejected  = errors.New("export sink non-2xx")
)

// Syncer pulls campaign directories from the Ads API and pushes cluster snapshots to the sink.
type Syncer struct {
	c       HTTPClient
	st      *store.MemoryStore
	log     *slog.Logger
	cfg     config.Config
	backoff utils.Backoff
	now     func() time.Time
}

func NewSyncer(c HTTPClient, st *store.MemoryStore, log *slog.Logger, cfg config.Config) *Syncer {
	return &Syncer{
		c:       c,
		st:      st,
		log:     log,
		cfg:     cfg,
		backoff: utils.NewBackoff(cfg.RetryBase, cfg.RetryMax),
		now:     time.Now,
	}
}

type campaignsResp []struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// SyncCampaigns replaces the client's directory with the Ads API listing and returns
// how many campaigns it now holds. Existing assignments are left alone.
func (s *Syncer) SyncCampaigns(ctx context.Context, clientID string) (int, error) {
	t, err := s.st.Tenant(clientID)
	if err != nil {
		return 0, err
	}
	if s.cfg.AdsURL == "" {
		return 0, fmt.Errorf("%w: ADS_API_URL", ErrNotConfigured)
	}
	u, err := url.Parse(s.cfg.AdsURL)
	if err != nil {
		return 0, fmt.Errorf("bad ads url: %w", err)
	}
	q := u.Query()
	q.Set("client_id", clientID)
	u.RawQuery = q.Encode()

	var resp campaignsResp
	if err := GetJSONWithRetry(ctx, s.c, s.backoff, u.String(), &resp); err != nil {
		return 0, fmt.Errorf("fetch campaigns: %w", err)
	}

	seen := make(map[string]struct{}, len(resp))
	out := make([]models.Campaign, 0, len(resp))
	for _, r := range resp {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		} // idempotencia
		seen[id] = struct{}{}
		status, keep := normStatus(r.Status)
		if !keep {
			continue
		}
		out = append(out, models.Campaign{
			ID:     id,
			Name:   coalesce(r.Name, id),
			Status: status,
		})
	}
	t.Campaigns.Replace(out)

	s.log.Info("campaign sync complete",
		slog.String("client_id", clientID),
		slog.Int("received", len(resp)),
		slog.Int("campaigns", len(out)))
	return len(out), nil
}

type exportPayload struct {
	ClientID   string                 `json:"client_id"`
	Version    uint64                 `json:"version"`
	ExportedAt time.Time              `json:"exported_at"`
	Clusters   []models.SignalCluster `json:"clusters"`
}

// ExportClusters posts the client's clusters to the sink, signed with HMAC-SHA256.
func (s *Syncer) ExportClusters(ctx context.Context, clientID string) (int, error) {
	t, err := s.st.Tenant(clientID)
	if err != nil {
		return 0, err
	}
	if !s.cfg.SinkConfigured() {
		return 0, fmt.Errorf("%w: SINK_URL/SINK_SECRET", ErrNotConfigured)
	}
	version, clusters := t.Snapshot()
	p := exportPayload{
		ClientID:   clientID,
		Version:    version,
		ExportedAt: s.now().UTC(),
		Clusters:   clusters,
	}
	b, err := json.Marshal(p)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.SinkURL, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", Sign(s.cfg.SinkSecret, b))
	resp, err := s.c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: %d", ErrSinkRejected, resp.StatusCode)
	}
	s.log.Info("clusters exported",
		slog.String("client_id", clientID),
		slog.Uint64("version", p.Version),
		slog.Int("clusters", len(p.Clusters)))
	return len(p.Clusters), nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func normStatus(s string) (models.CampaignStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paused":
		return models.CampaignPaused, true
	case "removed":
		return "", false
	}
	return models.CampaignEnabled, true
}

func coalesce(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
