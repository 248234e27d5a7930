package matching

import (
	"context"
	"sync"

	"github.com/mye-app/mye-backend/internal/directory"
	"github.com/mye-app/mye-backend/internal/geo"
	"github.com/mye-app/mye-backend/internal/logger"
	"github.com/mye-app/mye-backend/internal/notifications"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func at(lat, lon float64) *geo.Point {
	return &geo.Point{Latitude: lat, Longitude: lon}
}

func user(id int64, name string, pos *geo.Point) *directory.UserProfile {
	return &directory.UserProfile{ID: id, Name: name, Role: "worker", Position: pos}
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev notifications.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return d.err
}

func (d *recordingDispatcher) Events() []notifications.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notifications.Event(nil), d.events...)
}

func (d *recordingDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

type fixture struct {
	dir        *directory.MemoryDirectory
	store      *MemoryStore
	dispatcher *recordingDispatcher
	service    Service
}

func newFixture(users ...*directory.UserProfile) *fixture {
	dir := directory.NewMemoryDirectory(users...)
	store := NewMemoryStore()
	dispatcher := &recordingDispatcher{}
	machine := NewStateMachine(store, NewLocalLocker(), 3, logger.Discard())
	return &fixture{
		dir:        dir,
		store:      store,
		dispatcher: dispatcher,
		service:    NewService(dir, store, machine, dispatcher, logger.Discard()),
	}
}
