package style

import "strings"

// Store exposes style retrieval for handlers and the session controller.
type Store interface {
	List() []Style
	FindByID(id string) (Style, bool)
}

// MemoryStore keeps the catalog in its YAML order and indexes it by id.
// Lookups ignore case and surrounding whitespace, so "Industrial" finds
// the "industrial" entry.
type MemoryStore struct {
	order []string
	byID  map[string]Style
}

// NewMemoryStore indexes items. A later entry with an id already seen
// replaces the earlier one but keeps its position in the catalog.
func NewMemoryStore(items []Style) *MemoryStore {
	s := &MemoryStore{
		order: make([]string, 0, len(items)),
		byID:  make(map[string]Style, len(items)),
	}
	for _, item := range items {
		key := normalizeID(item.ID)
		if _, seen := s.byID[key]; !seen {
			s.order = append(s.order, key)
		}
		s.byID[key] = item
	}
	return s
}

// List returns the catalog in display order.
func (s *MemoryStore) List() []Style {
	out := make([]Style, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byID[key])
	}
	return out
}

// FindByID looks up a style by identifier.
func (s *MemoryStore) FindByID(id string) (Style, bool) {
	item, ok := s.byID[normalizeID(id)]
	return item, ok
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
