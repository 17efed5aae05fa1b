package qwik

import "sync"

// Store is a reactive record: one lazily-created cell per property, so a
// write to one property triggers only that property's subscribers. It is the
// object form Track accepts together with a property name.
type Store struct {
	mu    sync.Mutex
	cells map[string]*Signal[any]
}

// NewStore creates a store, optionally seeded with initial properties.
func NewStore(initial map[string]any) *Store {
	st := &Store{cells: make(map[string]*Signal[any], len(initial))}
	for prop, value := range initial {
		st.cells[prop] = NewSignal(value)
	}
	return st
}

// Get returns the property value and subscribes the current effect to that
// property only.
func (st *Store) Get(prop string) any {
	return st.cell(prop).Get()
}

// Peek returns the property value without establishing a subscription.
func (st *Store) Peek(prop string) any {
	return st.cell(prop).Peek()
}

// Set writes the property under the same identity rule as Signal.Set.
func (st *Store) Set(prop string, v any) {
	st.cell(prop).Set(v)
}

// Force triggers the property's subscribers without changing its value.
// Use after mutating the held value in place.
func (st *Store) Force(prop string) {
	st.cell(prop).Force()
}

// Signal exposes the underlying cell for a property.
func (st *Store) Signal(prop string) *Signal[any] {
	return st.cell(prop)
}

func (st *Store) cell(prop string) *Signal[any] {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.cells == nil {
		st.cells = make(map[string]*Signal[any])
	}
	s, ok := st.cells[prop]
	if !ok {
		s = NewSignal[any](nil)
		st.cells[prop] = s
	}
	return s
}
