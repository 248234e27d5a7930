package notifications

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

type memoryRepo struct {
	mu            sync.Mutex
	nextID        int64
	notifications []*Notification
	tokens        []*PushToken
	deactivated   []string
	createErr     error
}

func newMemoryRepo() *memoryRepo { return &memoryRepo{} }

func (m *memoryRepo) CreateNotification(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	n.ID = m.nextID
	n.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	c := *n
	m.notifications = append(m.notifications, &c)
	return nil
}

func (m *memoryRepo) GetUserNotifications(_ context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []*Notification{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) GetUserNotificationCount(_ context.Context, userID int64, unreadOnly bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepo) MarkAsRead(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (m *memoryRepo) MarkAllAsRead(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, x := range m.notifications {
		if x.UserID == userID && !x.IsRead {
			x.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) DeleteNotification(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (m *memoryRepo) DeleteReadBefore(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.notifications[:0]
	var n int64
	for _, x := range m.notifications {
		if x.IsRead && x.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, x)
	}
	m.notifications = kept
	return n, nil
}

func (m *memoryRepo) SavePushToken(_ context.Context, t *PushToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.IsActive = true
	m.tokens = append(m.tokens, t)
	return nil
}

func (m *memoryRepo) GetUserPushTokens(_ context.Context, userID int64) ([]*PushToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*PushToken
	for _, t := range m.tokens {
		if t.UserID == userID && t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryRepo) DeletePushToken(_ context.Context, userID int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tokens {
		if t.UserID == userID && t.Token == token {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memoryRepo) DeactivatePushTokens(_ context.Context, tokens []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deactivated = append(m.deactivated, tokens...)
	for _, t := range m.tokens {
		for _, bad := range tokens {
			if t.Token == bad {
				t.IsActive = false
			}
		}
	}
	return nil
}

type recordingRealtime struct {
	mu   sync.Mutex
	sent map[int64][]Message
}

func (r *recordingRealtime) Send(userID int64, msg Message) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = make(map[int64][]Message)
	}
	r.sent[userID] = append(r.sent[userID], msg)
	return 1
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*Notification
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, n *Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, n)
	return nil
}

type invalidatingPush struct {
	bad string
}

func (p *invalidatingPush) SendPush(_ context.Context, n *PushNotification) (*PushResult, error) {
	res := &PushResult{}
	for _, t := range n.Tokens {
		if t == p.bad {
			res.FailureCount++
			res.InvalidTokens = append(res.InvalidTokens, t)
		} else {
			res.SuccessCount++
		}
	}
	return res, nil
}

var errBoom = errors.New("boom")
