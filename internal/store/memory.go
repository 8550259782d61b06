package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/fishing-log/internal/weather"
)

var (
	// ErrNotFound is returned when no snapshot is available for a spot.
	ErrNotFound = errors.New("no forecast snapshot for spot")
)

// SnapshotHistory holds a time-ordered list of forecast snapshots for a spot.
type SnapshotHistory struct {
	Snapshots []weather.Snapshot
}

// MemoryStore is a concurrency-safe in-memory implementation of a snapshot store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: spot ID, value: history
	data map[string]*SnapshotHistory

	// retention configuration
	maxHistory int           // max number of snapshots per spot
	maxAge     time.Duration // optional max age for snapshots

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*SnapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot appends a new snapshot for a spot and enforces retention.
func (s *MemoryStore) SaveSnapshot(snapshot weather.Snapshot) error {
	if snapshot.SpotID == "" {
		return errors.New("snapshot has no spot id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[snapshot.SpotID]
	if !ok {
		history = &SnapshotHistory{}
		s.data[snapshot.SpotID] = history
	}

	history.Snapshots = append(history.Snapshots, snapshot)

	// Out-of-order saves are rare; a single insertion step keeps the slice sorted.
	for i := len(history.Snapshots) - 1; i > 0; i-- {
		if !history.Snapshots[i].FetchedAt.Before(history.Snapshots[i-1].FetchedAt) {
			break
		}
		history.Snapshots[i], history.Snapshots[i-1] = history.Snapshots[i-1], history.Snapshots[i]
	}

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	// Enforce retention by age. The newest snapshot always survives.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Snapshots)-1; i++ {
			if !history.Snapshots[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		history.Snapshots = history.Snapshots[i:]
	}

	return nil
}

// GetLatest returns the most recent snapshot for a spot.
func (s *MemoryStore) GetLatest(spotID string) (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[spotID]
	if !ok || len(history.Snapshots) == 0 {
		return weather.Snapshot{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// GetRange returns all snapshots for a spot between from and to (inclusive).
func (s *MemoryStore) GetRange(spotID string, from, to time.Time) ([]weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[spotID]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Snapshot
	for _, snap := range history.Snapshots {
		if !snap.FetchedAt.Before(from) && !snap.FetchedAt.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
