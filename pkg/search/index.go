package search

import "strings"

// Index answers substring queries over an immutable catalog.
type Index struct {
	entries []Entry
	lowered []loweredEntry
}

type loweredEntry struct {
	title       string
	description string
}

func NewIndex(entries []Entry) *Index {
	idx := &Index{
		entries: append([]Entry(nil), entries...),
		lowered: make([]loweredEntry, len(entries)),
	}
	for i, e := range idx.entries {
		idx.lowered[i] = loweredEntry{
			title:       strings.ToLower(e.Title),
			description: strings.ToLower(e.Description),
		}
	}
	return idx
}

// Entries returns a copy of the catalog in insertion order.
func (idx *Index) Entries() []Entry {
	return append([]Entry(nil), idx.entries...)
}

// QuickLinks are the page entries, offered when there is no query.
func (idx *Index) QuickLinks() []Entry {
	var pages []Entry
	for _, e := range idx.entries {
		if e.Type == TypePage {
			pages = append(pages, e)
		}
	}
	return pages
}

// Search returns the entries whose title or description contains query,
// ignoring case, in catalog order. A blank query returns nil, which callers
// use to show recents instead of a results panel; a query without matches
// returns an empty, non-nil slice.
func (idx *Index) Search(query string) []Entry {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	// Matching uses the untrimmed query, same as the dashboard always has.
	q := strings.ToLower(query)

	results := []Entry{}
	for i, e := range idx.entries {
		l := idx.lowered[i]
		if strings.Contains(l.title, q) || strings.Contains(l.description, q) {
			results = append(results, e)
		}
	}
	return results
}
