// Package graph implements Stage S3, the Graph Builder: participants, data,
// meshes, mappings, and exchanges are materialized into an arena-per-kind
// graph addressed by small integer ids, never by shared pointers (spec.md
// §3, §9 "Cyclic references").
package graph

// ParticipantID, DataID, MeshID, MappingID and ExchangeID are stable,
// insertion-ordered indices into their respective arenas.
type (
	ParticipantID int
	DataID        int
	MeshID        int
	MappingID     int
	ExchangeID    int
)

// Arena is an append-only, insertion-ordered store for one entity kind.
// Determinism (spec.md §5) requires iteration to follow insertion order,
// which a plain slice gives for free.
type Arena[T any] struct {
	items []T
}

// Add appends an item and returns its id.
func (a *Arena[T]) Add(item T) int {
	a.items = append(a.items, item)
	return len(a.items) - 1
}

// Get returns the item at id.
func (a *Arena[T]) Get(id int) T {
	return a.items[id]
}

// Set overwrites the item at id.
func (a *Arena[T]) Set(id int, item T) {
	a.items[id] = item
}

// Len returns the number of items in the arena.
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// All returns every item in insertion order. The returned slice aliases the
// arena's backing array and must be treated as read-only by callers.
func (a *Arena[T]) All() []T {
	return a.items
}
