package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/farm-forecast/internal/weather"
)

var (
	// ErrNotFound is returned when no snapshot is available for a given location.
	ErrNotFound = errors.New("no advisory snapshots for location")
)

// Snapshot is one recorded digest result for a farm location.
type Snapshot struct {
	ID        uuid.UUID                  `json:"id"`
	Location  string                     `json:"location"`
	FetchedAt time.Time                  `json:"fetchedAt"` // always UTC
	Forecast  weather.NormalizedForecast `json:"forecast"`
}

// NewSnapshot stamps a forecast with a fresh id and the current UTC time.
func NewSnapshot(location string, forecast weather.NormalizedForecast) Snapshot {
	return Snapshot{
		ID:        uuid.New(),
		Location:  location,
		FetchedAt: time.Now().UTC(),
		Forecast:  forecast,
	}
}

// Key returns the canonical index key for a location query.
func Key(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// MemoryStore is a concurrency-safe in-memory snapshot history.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: time-ordered snapshots
	data map[string][]Snapshot

	// retention configuration
	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory or maxAge is <= 0, that limit is disabled.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]Snapshot),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save appends a snapshot under its location and enforces retention.
func (s *MemoryStore) Save(snapshot Snapshot) {
	key := Key(snapshot.Location)

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.data[key], snapshot)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history); i++ {
			if !history[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		history = history[i:]
	}

	if len(history) == 0 {
		delete(s.data, key)
		return
	}
	s.data[key] = history
}

// Latest returns the most recent snapshot for a location.
func (s *MemoryStore) Latest(location string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[Key(location)]
	if len(history) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// Range returns all snapshots for a location between from and to (inclusive).
func (s *MemoryStore) Range(location string, from, to time.Time) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[Key(location)]
	if len(history) == 0 {
		return nil, ErrNotFound
	}

	var result []Snapshot
	for _, snap := range history {
		if !snap.FetchedAt.Before(from) && !snap.FetchedAt.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
