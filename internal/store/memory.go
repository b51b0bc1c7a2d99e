package store

import (
	"strings"
	"sync"

	"github.com/AngelCh415/ockno-signals/internal/models"
)

// Tenant is one agency client with its campaign directory and signal clusters.
type Tenant struct {
	*ClusterStore
	Campaigns *Directory
}

// AssignCampaign rejects campaigns unknown to the directory before touching the clusters.
// The directory is only an admission check: a concurrent sync may drop the campaign
// afterwards, which leaves the same state as a sync that runs after the assignment.
func (t *Tenant) AssignCampaign(clusterID, campaignID string, stage models.LeadStage) error {
	if _, ok := t.Campaigns.Campaign(campaignID); !ok {
		return notFoundError("campaign", campaignID)
	}
	return t.ClusterStore.AssignCampaign(clusterID, campaignID, stage)
}

func (t *Tenant) ToggleCampaign(clusterID, campaignID string, stage models.LeadStage) (bool, error) {
	if _, ok := t.Campaigns.Campaign(campaignID); !ok {
		return false, notFoundError("campaign", campaignID)
	}
	return t.ClusterStore.ToggleCampaign(clusterID, campaignID, stage)
}

// MemoryStore holds every tenant of the agency. All tenants share one id generator so
// goal and action ids stay unique process-wide.
type MemoryStore struct {
	mu      sync.RWMutex
	ids     IDGenerator
	clients map[string]*models.Client
	tenants map[string]*Tenant
	order   []string
}

func NewMemoryStore(ids IDGenerator) *MemoryStore {
	return &MemoryStore{
		ids:     ids,
		clients: make(map[string]*models.Client),
		tenants: make(map[string]*Tenant),
	}
}

// AddClient registers a new, active client with an empty directory and no clusters.
func (s *MemoryStore) AddClient(name string) (models.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Client{}, validationError("name", "must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.Client{ID: s.ids.NewID("client"), Name: name, Active: true}
	s.clients[c.ID] = c
	s.tenants[c.ID] = &Tenant{ClusterStore: NewClusterStore(s.ids), Campaigns: NewDirectory()}
	s.order = append(s.order, c.ID)
	return *c, nil
}

func (s *MemoryStore) Clients() []models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Client, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.clients[id])
	}
	return out
}

func (s *MemoryStore) Client(clientID string) (models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok {
		return models.Client{}, notFoundError("client", clientID)
	}
	return *c, nil
}

func (s *MemoryStore) SetClientActive(clientID string, active bool) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		return models.Client{}, notFoundError("client", clientID)
	}
	c.Active = active
	return *c, nil
}

func (s *MemoryStore) Tenant(clientID string) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[clientID]
	if !ok {
		return nil, notFoundError("client", clientID)
	}
	return t, nil
}
