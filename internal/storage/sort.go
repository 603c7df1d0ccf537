package storage

import (
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"offnote/internal/domain"
)

// Sorter orders note listings. Title order uses locale-aware collation.
type Sorter struct {
	mu       sync.Mutex // collate.Collator is not safe for concurrent use
	collator *collate.Collator
}

// NewSorter creates a Sorter collating titles for the given BCP 47 locale.
// An unparsable locale falls back to the root collation.
func NewSorter(locale string) *Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return &Sorter{collator: collate.New(tag)}
}

// Sort orders notes in place according to opts.
func (s *Sorter) Sort(notes []domain.Note, opts domain.ListOptions) {
	opts = opts.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	slices.SortStableFunc(notes, func(a, b domain.Note) int {
		var c int
		switch opts.SortBy {
		case domain.SortByTitle:
			c = s.collator.CompareString(a.Title, b.Title)
		case domain.SortByCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		}
		if opts.Order == domain.Desc {
			return -c
		}
		return c
	})
}
