// internal/directory/memory.go

package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mye-app/mye-backend/internal/geo"
)

// MemoryDirectory is an in-process Directory used by tests and local tooling.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[int64]*UserProfile
}

// NewMemoryDirectory seeds a directory with the given profiles.
func NewMemoryDirectory(users ...*UserProfile) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[int64]*UserProfile, len(users))}
	for _, u := range users {
		d.Put(u)
	}
	return d
}

// Put inserts or replaces a profile.
func (d *MemoryDirectory) Put(u *UserProfile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = cloneProfile(u)
}

func (d *MemoryDirectory) GetUser(_ context.Context, id int64) (*UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneProfile(u), nil
}

func (d *MemoryDirectory) GetUsers(_ context.Context, ids []int64) (map[int64]*UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[int64]*UserProfile, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = cloneProfile(u)
		}
	}
	return out, nil
}

func (d *MemoryDirectory) GetPosition(_ context.Context, id int64) (*geo.Point, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if u.Position == nil {
		return nil, nil
	}
	p := *u.Position
	return &p, nil
}

func (d *MemoryDirectory) ListCandidateIDs(_ context.Context, center geo.Point, radius float64, excluding int64) ([]int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	box := geo.BoundingBox(center, radius)
	var ids []int64
	for id, u := range d.users {
		if id == excluding || u.Position == nil || !box.Contains(*u.Position) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (d *MemoryDirectory) UpdatePosition(_ context.Context, id int64, p geo.Point, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Position = &p
	u.LocationUpdatedAt = &at
	return nil
}

func (d *MemoryDirectory) ListPositions(_ context.Context) (map[int64]geo.Point, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[int64]geo.Point)
	for id, u := range d.users {
		if u.Position != nil {
			out[id] = *u.Position
		}
	}
	return out, nil
}

func cloneProfile(u *UserProfile) *UserProfile {
	c := *u
	if u.Skills != nil {
		c.Skills = append([]string(nil), u.Skills...)
	}
	if u.Position != nil {
		p := *u.Position
		c.Position = &p
	}
	if u.LocationUpdatedAt != nil {
		t := *u.LocationUpdatedAt
		c.LocationUpdatedAt = &t
	}
	return &c
}
