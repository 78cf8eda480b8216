package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mikeboe/lab-dashboard/pkg/storage"
)

const (
	// RecentKey is the storage key of the serialized recent list.
	RecentKey = "recentSearches"
	// MaxRecent caps the recent list.
	MaxRecent = 5
)

// Recent is the most-recent-first list of selected results.
type Recent struct {
	store  storage.Store
	logger *slog.Logger

	mu      sync.Mutex
	entries []RecentEntry
}

func NewRecent(store storage.Store, logger *slog.Logger) *Recent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recent{store: store, logger: logger}
}

// Load reads the persisted list. A missing, unreadable or corrupt value is an
// empty list.
func (r *Recent) Load(ctx context.Context) []RecentEntry {
	entries := r.read(ctx)

	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()
	return append([]RecentEntry(nil), entries...)
}

func (r *Recent) read(ctx context.Context) []RecentEntry {
	raw, err := r.store.Get(ctx, RecentKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		r.logger.Warn("Failed to read recent searches", "error", err)
		return nil
	}

	var entries []RecentEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		r.logger.Warn("Discarding corrupt recent searches", "error", err)
		return nil
	}
	if len(entries) > MaxRecent {
		entries = entries[:MaxRecent]
	}
	return entries
}

// Entries returns the in-memory list.
func (r *Recent) Entries() []RecentEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecentEntry(nil), r.entries...)
}

// Add puts e at the front, drops any older entry with the same title, keeps
// the MaxRecent newest and persists the result. The in-memory list is updated
// even if persisting fails.
func (r *Recent) Add(ctx context.Context, e RecentEntry) ([]RecentEntry, error) {
	r.mu.Lock()
	r.entries = pushRecent(r.entries, e)
	entries := append([]RecentEntry(nil), r.entries...)
	r.mu.Unlock()

	data, err := json.Marshal(entries)
	if err != nil {
		return entries, fmt.Errorf("failed to encode recent searches: %w", err)
	}
	if err := r.store.Set(ctx, RecentKey, string(data)); err != nil {
		return entries, fmt.Errorf("failed to save recent searches: %w", err)
	}
	return entries, nil
}

// Clear empties the list in memory and in storage.
func (r *Recent) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()

	if err := r.store.Delete(ctx, RecentKey); err != nil {
		return fmt.Errorf("failed to clear recent searches: %w", err)
	}
	return nil
}

func pushRecent(list []RecentEntry, e RecentEntry) []RecentEntry {
	next := make([]RecentEntry, 0, MaxRecent)
	next = append(next, e)
	for _, r := range list {
		if len(next) == MaxRecent {
			break
		}
		if r.Title == e.Title {
			continue
		}
		next = append(next, r)
	}
	return next
}
