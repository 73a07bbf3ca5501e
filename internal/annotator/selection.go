package annotator

import (
	"sync"

	"pdf-layout-annotator/internal/domain"
)

// Mode selects what a finished drag does.
type Mode int

const (
	// ModeLabel creates labeled annotations.
	ModeLabel Mode = iota
	// ModeReadingOrder submits regions for reading-order reassignment.
	ModeReadingOrder
)

func (m Mode) String() string {
	if m == ModeReadingOrder {
		return "reading_order"
	}
	return "label"
}

// Options are the sidebar toggles of a session.
type Options struct {
	// HideLabels hides label captions on annotation overlays.
	HideLabels bool
	// ShowTokens draws a preview overlay for every token of visible pages.
	ShowTokens bool
	// Freeform keeps raw drag rectangles without resolving them to tokens.
	Freeform bool
}

// Selection is the ephemeral set of annotations picked with shift-click,
// keyed by id and kept in pick order. It is never persisted.
type Selection struct {
	mu    sync.Mutex
	order []string
	items map[string]domain.Annotation
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{items: make(map[string]domain.Annotation)}
}

// Toggle adds a when absent and removes it when present. It reports whether
// a is selected afterwards.
func (s *Selection) Toggle(a domain.Annotation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[a.ID]; ok {
		delete(s.items, a.ID)
		for i, id := range s.order {
			if id == a.ID {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
		return false
	}
	s.items[a.ID] = a
	s.order = append(s.order, a.ID)
	return true
}

// Set replaces the selection.
func (s *Selection) Set(annotations ...domain.Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = s.order[:0]
	s.items = make(map[string]domain.Annotation, len(annotations))
	for _, a := range annotations {
		if _, dup := s.items[a.ID]; dup {
			continue
		}
		s.items[a.ID] = a
		s.order = append(s.order, a.ID)
	}
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok
}

// First returns the earliest selected annotation.
func (s *Selection) First() (domain.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return domain.Annotation{}, false
	}
	return s.items[s.order[0]], true
}

// Items returns the selected annotations in pick order.
func (s *Selection) Items() []domain.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Annotation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Len returns the number of selected annotations.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.Set()
}
