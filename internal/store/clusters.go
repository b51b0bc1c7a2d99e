package store

import (
	"math"
	"strings"
	"sync"

	"github.com/AngelCh415/ockno-signals/internal/models"
)

// ClusterStore owns the signal clusters of one client.
//
// A campaign is assigned to at most one cluster at a time, every cluster carries exactly
// one goal per lead stage, and a cluster with assignments cannot be deleted. Every
// mutation validates first and only then touches the table, so a failed call leaves
// the table exactly as it was.
type ClusterStore struct {
	mu       sync.RWMutex
	ids      IDGenerator
	order    []string
	clusters map[string]*models.SignalCluster
	version  uint64
}

func NewClusterStore(ids IDGenerator) *ClusterStore {
	return &ClusterStore{
		ids:      ids,
		clusters: make(map[string]*models.SignalCluster),
	}
}

// Version increases by one on every successful mutation.
func (s *ClusterStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *ClusterStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *ClusterStore) CreateCluster(name, description string) (models.SignalCluster, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.SignalCluster{}, validationError("name", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.SignalCluster{
		ID:          s.ids.NewID("cluster"),
		Name:        name,
		Description: strings.TrimSpace(description),
		Goals:       newDefaultGoals(s.ids),
		Assignments: []models.CampaignAssignment{},
	}
	s.insert(c)
	return c.Clone(), nil
}

func (s *ClusterStore) DeleteCluster(clusterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clusters[clusterID]
	if !ok {
		return notFoundError("cluster", clusterID)
	}
	if n := len(c.Assignments); n > 0 {
		return invariantError("cluster %s still has %d campaign assignment(s)", clusterID, n)
	}
	delete(s.clusters, clusterID)
	for i, id := range s.order {
		if id == clusterID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.version++
	return nil
}

// DuplicateCluster copies the source's goals with their current values under new ids.
// Campaign assignments are never carried over.
func (s *ClusterStore) DuplicateCluster(clusterID string) (models.SignalCluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.clusters[clusterID]
	if !ok {
		return models.SignalCluster{}, notFoundError("cluster", clusterID)
	}
	c := &models.SignalCluster{
		ID:          s.ids.NewID("cluster"),
		Name:        src.Name + " (Copy)",
		Description: src.Description,
		Goals:       copyGoals(s.ids, src.Goals),
		Assignments: []models.CampaignAssignment{},
	}
	s.insert(c)
	return c.Clone(), nil
}

// AssignCampaign moves campaignID into clusterID at stage, dropping it from every other
// cluster. Calling it again on the same cluster only changes the stage.
func (s *ClusterStore) AssignCampaign(clusterID, campaignID string, stage models.LeadStage) error {
	if strings.TrimSpace(campaignID) == "" {
		return validationError("campaign_id", "must not be empty")
	}
	if !stage.Valid() {
		return validationError("stage", "must be one of NEW, QUALIFIED, CONVERTED")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.clusters[clusterID]
	if !ok {
		return notFoundError("cluster", clusterID)
	}
	s.assign(target, campaignID, stage)
	return nil
}

func (s *ClusterStore) UnassignCampaign(clusterID, campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clusters[clusterID]
	if !ok {
		return notFoundError("cluster", clusterID)
	}
	if removeAssignment(c, campaignID) {
		s.version++
	}
	return nil
}

// ToggleCampaign unassigns the campaign when it already sits in clusterID and assigns it
// at stage otherwise. It reports whether the campaign ends up assigned.
func (s *ClusterStore) ToggleCampaign(clusterID, campaignID string, stage models.LeadStage) (bool, error) {
	if strings.TrimSpace(campaignID) == "" {
		return false, validationError("campaign_id", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.clusters[clusterID]
	if !ok {
		return false, notFoundError("cluster", clusterID)
	}
	if _, assigned := target.Assignment(campaignID); assigned {
		removeAssignment(target, campaignID)
		s.version++
		return false, nil
	}
	if !stage.Valid() {
		return false, validationError("stage", "must be one of NEW, QUALIFIED, CONVERTED")
	}
	s.assign(target, campaignID, stage)
	return true, nil
}

func (s *ClusterStore) UpdateConversionValue(clusterID, goalID, actionID string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return validationError("value", "must be a finite number >= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.action(clusterID, goalID, actionID)
	if err != nil {
		return err
	}
	a.Value = value
	s.version++
	return nil
}

func (s *ClusterStore) SetActionEnabled(clusterID, goalID, actionID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.action(clusterID, goalID, actionID)
	if err != nil {
		return err
	}
	if a.Enabled != enabled {
		a.Enabled = enabled
		s.version++
	}
	return nil
}

// ClustersForCampaign returns the single placement of campaignID, if it has one.
func (s *ClusterStore) ClustersForCampaign(campaignID string) (models.Placement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.placement(campaignID)
}

// ConflictFor reports the placement of campaignID in a cluster other than clusterID,
// i.e. the cluster it would be moved out of by an assignment to clusterID.
func (s *ClusterStore) ConflictFor(clusterID, campaignID string) (models.Placement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.placement(campaignID)
	if !ok || p.ClusterID == clusterID {
		return models.Placement{}, false
	}
	return p, true
}

func (s *ClusterStore) Cluster(clusterID string) (models.SignalCluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clusters[clusterID]
	if !ok {
		return models.SignalCluster{}, notFoundError("cluster", clusterID)
	}
	return c.Clone(), nil
}

// Clusters returns deep copies in creation order.
func (s *ClusterStore) Clusters() []models.SignalCluster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneAll()
}

// Snapshot returns the version together with the clusters it describes.
func (s *ClusterStore) Snapshot() (uint64, []models.SignalCluster) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, s.cloneAll()
}

// Validate walks the whole table and reports the first broken invariant.
func (s *ClusterStore) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner := map[string]string{}
	seen := map[string]struct{}{}
	unique := func(id string) error {
		if _, dup := seen[id]; dup {
			return invariantError("identifier %s is used twice", id)
		}
		seen[id] = struct{}{}
		return nil
	}
	for _, id := range s.order {
		c := s.clusters[id]
		if err := unique(c.ID); err != nil {
			return err
		}
		if len(c.Goals) != len(models.Stages) {
			return invariantError("cluster %s has %d goals", c.ID, len(c.Goals))
		}
		stages := map[models.LeadStage]bool{}
		for _, g := range c.Goals {
			if !g.Stage.Valid() || stages[g.Stage] {
				return invariantError("cluster %s has a duplicate or invalid %q goal", c.ID, g.Stage)
			}
			stages[g.Stage] = true
			if err := unique(g.ID); err != nil {
				return err
			}
			for _, a := range g.Actions {
				if err := unique(a.ID); err != nil {
					return err
				}
			}
		}
		for _, a := range c.Assignments {
			if prev, dup := owner[a.CampaignID]; dup {
				return invariantError("campaign %s assigned to both %s and %s", a.CampaignID, prev, c.ID)
			}
			owner[a.CampaignID] = c.ID
		}
	}
	return nil
}

func (s *ClusterStore) cloneAll() []models.SignalCluster {
	out := make([]models.SignalCluster, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.clusters[id].Clone())
	}
	return out
}

func (s *ClusterStore) insert(c *models.SignalCluster) {
	s.clusters[c.ID] = c
	s.order = append(s.order, c.ID)
	s.version++
}

// assign expects the caller to hold the write lock and to have validated its input.
func (s *ClusterStore) assign(target *models.SignalCluster, campaignID string, stage models.LeadStage) {
	for _, id := range s.order {
		if c := s.clusters[id]; c != target {
			removeAssignment(c, campaignID)
		}
	}
	for i := range target.Assignments {
		if target.Assignments[i].CampaignID == campaignID {
			target.Assignments[i].Stage = stage
			s.version++
			return
		}
	}
	target.Assignments = append(target.Assignments, models.CampaignAssignment{CampaignID: campaignID, Stage: stage})
	s.version++
}

func (s *ClusterStore) placement(campaignID string) (models.Placement, bool) {
	for _, id := range s.order {
		c := s.clusters[id]
		if a, ok := c.Assignment(campaignID); ok {
			return models.Placement{ClusterID: c.ID, ClusterName: c.Name, Stage: a.Stage}, true
		}
	}
	return models.Placement{}, false
}

func (s *ClusterStore) action(clusterID, goalID, actionID string) (*models.ConversionAction, error) {
	c, ok := s.clusters[clusterID]
	if !ok {
		return nil, notFoundError("cluster", clusterID)
	}
	for gi := range c.Goals {
		g := &c.Goals[gi]
		if g.ID != goalID {
			continue
		}
		for ai := range g.Actions {
			if g.Actions[ai].ID == actionID {
				return &g.Actions[ai], nil
			}
		}
		return nil, notFoundError("conversion action", actionID)
	}
	return nil, notFoundError("goal", goalID)
}

func removeAssignment(c *models.SignalCluster, campaignID string) bool {
	for i, a := range c.Assignments {
		if a.CampaignID == campaignID {
			c.Assignments = append(c.Assignments[:i], c.Assignments[i+1:]...)
			return true
		}
	}
	return false
}
