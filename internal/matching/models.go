// internal/matching/models.go

package matching

import (
	"fmt"
	"time"
)

// Action is one side's decision about the other user of a pair.
type Action string

const (
	ActionNone Action = "none"
	ActionLike Action = "like"
	ActionPass Action = "pass"
)

// PairKey identifies an unordered pair of users. Low is always the smaller id.
type PairKey struct {
	Low  int64
	High int64
}

// NewPairKey canonicalizes a and b.
func NewPairKey(a, b int64) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

func (k PairKey) String() string {
	return fmt.Sprintf("%d:%d", k.Low, k.High)
}

// MatchRecord is the interaction state of one pair. User1 is whoever acted
// first, not the smaller id.
type MatchRecord struct {
	ID                 int64      `db:"id"`
	User1ID            int64      `db:"user1_id"`
	User2ID            int64      `db:"user2_id"`
	User1Action        Action     `db:"user1_action"`
	User2Action        Action     `db:"user2_action"`
	IsMutual           bool       `db:"is_mutual"`
	Distance           *float64   `db:"distance"`
	CompatibilityScore *int       `db:"compatibility_score"`
	MatchedAt          *time.Time `db:"matched_at"`
	Version            int64      `db:"version"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// Key returns the canonical pair key of the record.
func (m *MatchRecord) Key() PairKey {
	return NewPairKey(m.User1ID, m.User2ID)
}

// ActionOf returns the action userID took, or none if userID is not part of the pair.
func (m *MatchRecord) ActionOf(userID int64) Action {
	switch userID {
	case m.User1ID:
		return m.User1Action
	case m.User2ID:
		return m.User2Action
	}
	return ActionNone
}

// OtherUser returns the participant that is not userID.
func (m *MatchRecord) OtherUser(userID int64) int64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

func (m *MatchRecord) setAction(userID int64, a Action) {
	if m.User1ID == userID {
		m.User1Action = a
	} else {
		m.User2Action = a
	}
}

func (m *MatchRecord) clone() *MatchRecord {
	c := *m
	if m.Distance != nil {
		d := *m.Distance
		c.Distance = &d
	}
	if m.CompatibilityScore != nil {
		s := *m.CompatibilityScore
		c.CompatibilityScore = &s
	}
	if m.MatchedAt != nil {
		t := *m.MatchedAt
		c.MatchedAt = &t
	}
	return &c
}

// Snapshot is the distance and score recorded on a record when it is
// written. A nil Distance means at least one position was unknown.
type Snapshot struct {
	Distance *float64
	Score    *int
}
