package topology

import "strings"

// UniquifierPool is the ordered, shrinking adjective list used to resolve
// bidirectional data-name collisions (spec.md §4.3, §9). It is shrunk during
// S1 (ExcludeCollisionsWith) and consumed during S3, where each Take removes
// the adjective it hands out.
type UniquifierPool struct {
	remaining []string
}

// NewUniquifierPool seeds a pool from an ordered adjective list. The slice
// is copied so callers can reuse their source list across runs.
func NewUniquifierPool(adjectives []string) *UniquifierPool {
	cp := make([]string, len(adjectives))
	copy(cp, adjectives)
	return &UniquifierPool{remaining: cp}
}

// ExcludeCollisionsWith removes every adjective that appears, case
// insensitively, as a substring of name.
func (p *UniquifierPool) ExcludeCollisionsWith(name string) {
	lower := strings.ToLower(name)
	kept := p.remaining[:0:0]
	for _, adj := range p.remaining {
		if strings.Contains(lower, strings.ToLower(adj)) {
			continue
		}
		kept = append(kept, adj)
	}
	p.remaining = kept
}

// Take returns the next available adjective and removes it from the pool.
// ok is false when the pool is exhausted.
func (p *UniquifierPool) Take() (adjective string, ok bool) {
	if len(p.remaining) == 0 {
		return "", false
	}
	adjective = p.remaining[0]
	p.remaining = p.remaining[1:]
	return adjective, true
}

// Len reports how many adjectives remain.
func (p *UniquifierPool) Len() int { return len(p.remaining) }
