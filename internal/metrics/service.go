package metrics

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/AngelCh415/ockno-signals/internal/models"
	"github.com/AngelCh415/ockno-signals/internal/store"
)

// Service computes read-only views over a client's clusters. Nothing is cached:
// every call recomputes from the current table.
type Service struct{ st *store.MemoryStore }

func NewService(st *store.MemoryStore) *Service { return &Service{st: st} }
func norm(s string) string                      { return strings.ToLower(strings.TrimSpace(s)) }

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

// ClusterSummaries supports ?stage=new,qualified&active=true&limit=&offset=.
func (s *Service) ClusterSummaries(clientID string, v url.Values) ([]models.ClusterSummary, error) {
	t, err := s.st.Tenant(clientID)
	if err != nil {
		return nil, err
	}
	stageSet := csvSet(v.Get("stage"))
	active, hasActive := parseBool(v.Get("active"))
	limit := atoiDef(v.Get("limit"), 100)
	offset := atoiDef(v.Get("offset"), 0)

	clusters := t.Clusters()
	rows := make([]models.ClusterSummary, 0, len(clusters))
	for _, c := range clusters {
		row := summarize(c)
		if hasActive && row.Active != active {
			continue
		}
		if len(stageSet) > 0 && !hasStage(row, stageSet) {
			continue
		}
		rows = append(rows, row)
	}
	limit, offset = clampLimitOffset(limit, offset, len(rows))
	return paginate(rows, limit, offset), nil
}

// CampaignBoard lists the directory as seen from clusterID, flagging campaigns that an
// assignment would move out of another cluster. Supports ?status=&limit=&offset=.
func (s *Service) CampaignBoard(clientID, clusterID string, v url.Values) ([]models.CampaignRow, error) {
	t, err := s.st.Tenant(clientID)
	if err != nil {
		return nil, err
	}
	if clusterID != "" {
		if _, err := t.Cluster(clusterID); err != nil {
			return nil, err
		}
	}
	statusSet := csvSet(v.Get("status"))
	limit := atoiDef(v.Get("limit"), 100)
	offset := atoiDef(v.Get("offset"), 0)

	campaigns := t.Campaigns.List()
	rows := make([]models.CampaignRow, 0, len(campaigns))
	for _, c := range campaigns {
		if len(statusSet) > 0 {
			if _, ok := statusSet[norm(string(c.Status))]; !ok {
				continue
			}
		}
		row := models.CampaignRow{ID: c.ID, Name: c.Name, Status: c.Status}
		if p, ok := t.ClustersForCampaign(c.ID); ok {
			row.Stage = p.Stage
			row.ClusterID = p.ClusterID
			if clusterID != "" && p.ClusterID == clusterID {
				row.AssignedHere = true
			} else if clusterID != "" {
				row.MovesFrom = p.ClusterName
			}
		}
		rows = append(rows, row)
	}
	limit, offset = clampLimitOffset(limit, offset, len(rows))
	return paginate(rows, limit, offset), nil
}

func summarize(c models.SignalCluster) models.ClusterSummary {
	row := models.ClusterSummary{
		ClusterID:         c.ID,
		Name:              c.Name,
		Description:       c.Description,
		Active:            len(c.Assignments) > 0,
		AssignedCampaigns: len(c.Assignments),
		ByStage:           make(map[models.LeadStage]int, len(models.Stages)),
	}
	for _, st := range models.Stages {
		row.ByStage[st] = 0
	}
	for _, a := range c.Assignments {
		row.ByStage[a.Stage]++
	}
	for _, g := range c.Goals {
		for _, a := range g.Actions {
			if a.Enabled {
				row.EnabledValue += a.Value
			}
		}
	}
	row.EnabledValue = round2(row.EnabledValue)
	return row
}

func hasStage(row models.ClusterSummary, set map[string]struct{}) bool {
	for st, n := range row.ByStage {
		if n == 0 {
			continue
		}
		if _, ok := set[norm(string(st))]; ok {
			return true
		}
	}
	return false
}

func parseBool(s string) (bool, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, false
	}
	return b, true
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
	} // tope sano
	if offset > n {
		offset = n
	}
	return limit, offset
}
func round2(f float64) float64 { return math.Round(f*100) / 100 }
