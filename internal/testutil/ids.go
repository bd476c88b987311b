package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs issues "<prefix>-0001", "<prefix>-0002", ... as store
// ingest ids, so stored records are byte-stable across runs.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs uses "env" when prefix is empty.
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "env"
	}
	return &SequentialIDs{prefix: prefix}
}

func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
