package store

import (
	"sort"
	"sync"

	"github.com/AngelCh415/ockno-signals/internal/models"
)

// Directory is the read-only view of a client's ad campaigns, refreshed by sync.
type Directory struct {
	mu        sync.RWMutex
	campaigns map[string]models.Campaign
}

func NewDirectory() *Directory {
	return &Directory{campaigns: make(map[string]models.Campaign)}
}

// Replace swaps the whole directory for cs.
func (d *Directory) Replace(cs []models.Campaign) {
	next := make(map[string]models.Campaign, len(cs))
	for _, c := range cs {
		next[c.ID] = c
	}
	d.mu.Lock()
	d.campaigns = next
	d.mu.Unlock()
}

func (d *Directory) Campaign(id string) (models.Campaign, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.campaigns[id]
	return c, ok
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.campaigns)
}

// List returns campaigns ordered by name, then id.
func (d *Directory) List() []models.Campaign {
	d.mu.RLock()
	out := make([]models.Campaign, 0, len(d.campaigns))
	for _, c := range d.campaigns {
		out = append(out, c)
	}
	d.mu.RUnlock()

	// orden determinista
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
