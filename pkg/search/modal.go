package search

import (
	"context"
	"sync"

	"github.com/mikeboe/lab-dashboard/pkg/surface"
)

// Navigator moves the user to a route of the dashboard.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Modal is the search surface: query box, results and recent searches.
type Modal struct {
	index   *Index
	recent  *Recent
	nav     Navigator
	surface *surface.Surface

	mu      sync.Mutex
	query   string
	results []Entry
}

func NewModal(index *Index, recent *Recent, nav Navigator) *Modal {
	return &Modal{
		index:   index,
		recent:  recent,
		nav:     nav,
		surface: surface.New(),
	}
}

func (m *Modal) Surface() *surface.Surface { return m.surface }

func (m *Modal) Index() *Index { return m.index }

// Open shows the modal with an empty query and reloads the recent list.
func (m *Modal) Open(ctx context.Context) {
	m.mu.Lock()
	m.query = ""
	m.results = nil
	m.mu.Unlock()

	m.recent.Load(ctx)
	m.surface.Open()
}

// SetQuery runs the search for query and keeps it as the current result set.
func (m *Modal) SetQuery(query string) []Entry {
	results := m.index.Search(query)

	m.mu.Lock()
	m.query = query
	m.results = results
	m.mu.Unlock()
	return results
}

func (m *Modal) Query() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

// Results returns the current results; nil means "no query".
func (m *Modal) Results() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results == nil {
		return nil
	}
	return append([]Entry{}, m.results...)
}

func (m *Modal) Recent() []RecentEntry {
	return m.recent.Entries()
}

// Select records e as the most recent search, navigates to it and closes the
// modal. Navigation happens even when the recent list could not be saved; the
// save error is returned.
func (m *Modal) Select(ctx context.Context, e Entry) error {
	_, err := m.recent.Add(ctx, e.Recent())
	if m.nav != nil {
		m.nav.Navigate(e.Path)
	}
	m.surface.Close()
	return err
}

// SelectRecent re-opens a remembered entry.
func (m *Modal) SelectRecent(ctx context.Context, r RecentEntry) error {
	return m.Select(ctx, Entry{Type: r.Type, Title: r.Title, Path: r.Path})
}

func (m *Modal) ClearRecent(ctx context.Context) error {
	return m.recent.Clear(ctx)
}
