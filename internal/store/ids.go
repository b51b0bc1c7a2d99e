package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator hands out identifiers that are never reused for the lifetime of the process.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator produces time-ordered ids ("goal_0190...").
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "_" + id.String()
}

// SequenceGenerator produces "prefix_N" with a single counter shared by all prefixes.
type SequenceGenerator struct {
	mu sync.Mutex
	n  uint64
}

func NewSequenceGenerator() *SequenceGenerator { return &SequenceGenerator{} }

func (g *SequenceGenerator) NewID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s_%d", prefix, g.n)
}

// NewIDGenerator picks a generator by mode name; anything but "sequence" means uuid.
func NewIDGenerator(mode string) IDGenerator {
	if mode == "sequence" {
		return NewSequenceGenerator()
	}
	return UUIDGenerator{}
}
