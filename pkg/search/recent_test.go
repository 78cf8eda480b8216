package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/mikeboe/lab-dashboard/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingStore) Set(context.Context, string, string) error   { return f.err }
func (f failingStore) Delete(context.Context, string) error        { return f.err }

func TestRecentLoad(t *testing.T) {
	tests := []struct {
		name   string
		stored *string
		store  storage.Store
		want   []RecentEntry
	}{
		{name: "Missing key", want: nil},
		{name: "Corrupt value", stored: ptr("{broken"), want: nil},
		{name: "Wrong shape", stored: ptr(`{"title":"x"}`), want: nil},
		{
			name:   "Valid list",
			stored: ptr(`[{"title":"Labs Management","path":"/labs","type":"page"}]`),
			want:   []RecentEntry{{Title: "Labs Management", Path: "/labs", Type: TypePage}},
		},
		{name: "Storage failure", store: failingStore{err: errors.New("disk gone")}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := tt.store
			if store == nil {
				mem := storage.NewMemoryStore()
				if tt.stored != nil {
					require.NoError(t, mem.Set(ctx, RecentKey, *tt.stored))
				}
				store = mem
			}
			r := NewRecent(store, discard)
			assert.Equal(t, tt.want, r.Load(ctx))
		})
	}
}

func TestRecentAddCapsAndOrders(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	r := NewRecent(mem, discard)

	for i := 0; i < 12; i++ {
		entries, err := r.Add(ctx, RecentEntry{Title: fmt.Sprintf("entry-%d", i), Path: "/p", Type: TypePage})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(entries), MaxRecent)
		assert.Equal(t, fmt.Sprintf("entry-%d", i), entries[0].Title)

		seen := map[string]bool{}
		for _, e := range entries {
			assert.False(t, seen[e.Title], "duplicate title %q", e.Title)
			seen[e.Title] = true
		}
	}

	got := r.Entries()
	require.Len(t, got, MaxRecent)
	assert.Equal(t, "entry-11", got[0].Title)
	assert.Equal(t, "entry-7", got[4].Title)

	// Persisted copy matches memory.
	reloaded := NewRecent(mem, discard).Load(ctx)
	assert.Equal(t, got, reloaded)
}

func TestRecentAddSameEntryMovesToFront(t *testing.T) {
	ctx := context.Background()
	r := NewRecent(storage.NewMemoryStore(), discard)

	a := RecentEntry{Title: "Analytics", Path: "/analytics", Type: TypePage}
	b := RecentEntry{Title: "Profile", Path: "/profile", Type: TypePage}

	_, _ = r.Add(ctx, a)
	_, _ = r.Add(ctx, b)
	entries, err := r.Add(ctx, a)
	require.NoError(t, err)

	assert.Equal(t, []RecentEntry{a, b}, entries)

	entries, err = r.Add(ctx, a)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRecentAddKeepsMemoryOnSaveFailure(t *testing.T) {
	r := NewRecent(failingStore{err: errors.New("quota exceeded")}, discard)

	entries, err := r.Add(context.Background(), RecentEntry{Title: "Labs"})
	assert.Error(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, r.Entries(), 1)
}

func TestRecentClear(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	r := NewRecent(mem, discard)

	_, _ = r.Add(ctx, RecentEntry{Title: "Labs"})
	require.NoError(t, r.Clear(ctx))

	assert.Empty(t, r.Entries())
	_, err := mem.Get(ctx, RecentKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func ptr(s string) *string { return &s }
