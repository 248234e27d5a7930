// internal/matching/store.go

package matching

import (
	"context"
	"sort"
	"sync"
	"time"
)

// UpdateFunc receives the stored record for a pair, or nil when the pair
// has none yet, and returns the record to persist.
type UpdateFunc func(cur *MatchRecord) (*MatchRecord, error)

// MatchStore persists match records, one per unordered pair.
type MatchStore interface {
	// Update applies fn atomically. It returns ErrPersistenceConflict when a
	// concurrent writer got there first; callers retry.
	Update(ctx context.Context, key PairKey, fn UpdateFunc) (*MatchRecord, error)
	// Get returns nil without error when the pair has no record.
	Get(ctx context.Context, key PairKey) (*MatchRecord, error)
	// ListForUser returns userID's records with each of others, keyed by the other id.
	ListForUser(ctx context.Context, userID int64, others []int64) (map[int64]*MatchRecord, error)
	// ListMutual returns userID's mutual records, most recent match first.
	ListMutual(ctx context.Context, userID int64) ([]*MatchRecord, error)
}

// MemoryStore keeps records in process. Writes use an optimistic version
// check, so it also detects races that bypass the pair locker.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[PairKey]*MatchRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[PairKey]*MatchRecord), now: time.Now}
}

func (s *MemoryStore) Update(_ context.Context, key PairKey, fn UpdateFunc) (*MatchRecord, error) {
	s.mu.RLock()
	var cur *MatchRecord
	if r, ok := s.records[key]; ok {
		cur = r.clone()
	}
	s.mu.RUnlock()

	next, err := fn(cur)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.records[key]
	switch {
	case cur == nil && exists:
		return nil, ErrPersistenceConflict
	case cur != nil && (!exists || stored.Version != cur.Version):
		return nil, ErrPersistenceConflict
	}

	next = next.clone()
	now := s.now()
	if cur == nil {
		s.nextID++
		next.ID = s.nextID
		next.Version = 1
		next.CreatedAt = now
	} else {
		next.Version = cur.Version + 1
	}
	next.UpdatedAt = now
	s.records[key] = next
	return next.clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, key PairKey) (*MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[key]; ok {
		return r.clone(), nil
	}
	return nil, nil
}

func (s *MemoryStore) ListForUser(_ context.Context, userID int64, others []int64) (map[int64]*MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]*MatchRecord)
	for _, other := range others {
		if r, ok := s.records[NewPairKey(userID, other)]; ok {
			out[other] = r.clone()
		}
	}
	return out, nil
}

func (s *MemoryStore) ListMutual(_ context.Context, userID int64) ([]*MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*MatchRecord
	for _, r := range s.records {
		if r.IsMutual && (r.User1ID == userID || r.User2ID == userID) {
			out = append(out, r.clone())
		}
	}
	sortByMatchedAt(out)
	return out, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func sortByMatchedAt(records []*MatchRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i].MatchedAt, records[j].MatchedAt
		if a != nil && b != nil && !a.Equal(*b) {
			return a.After(*b)
		}
		if (a == nil) != (b == nil) {
			return a != nil
		}
		return records[i].ID > records[j].ID
	})
}
