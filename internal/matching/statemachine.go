// internal/matching/statemachine.go

package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const retryBackoff = 10 * time.Millisecond

// Transition is the outcome of one recorded action.
type Transition struct {
	Record       *MatchRecord
	Created      bool
	BecameMutual bool
}

// StateMachine owns the like/pass/mutual rules for a pair.
type StateMachine struct {
	store      MatchStore
	locker     PairLocker
	maxRetries int
	now        func() time.Time
	log        *logrus.Entry
}

func NewStateMachine(store MatchStore, locker PairLocker, maxRetries int, log *logrus.Entry) *StateMachine {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &StateMachine{
		store:      store,
		locker:     locker,
		maxRetries: maxRetries,
		now:        time.Now,
		log:        log,
	}
}

// RecordAction sets actor's side of the (actor, target) pair to action. The
// first record of a pair stores snap; later writes refresh it only when snap
// is non-nil. Mutual state is entered once and never left.
func (sm *StateMachine) RecordAction(ctx context.Context, actor, target int64, action Action, snap *Snapshot) (*Transition, error) {
	if actor == target {
		return nil, ErrSelfTarget
	}
	if action != ActionLike && action != ActionPass {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	key := NewPairKey(actor, target)
	log := sm.log.WithFields(logrus.Fields{"pair": key.String(), "user_id": actor, "action": action})

	for attempt := 1; ; attempt++ {
		tr, err := sm.apply(ctx, key, actor, target, action, snap)
		if err == nil {
			return tr, nil
		}
		if !errors.Is(err, ErrPersistenceConflict) {
			return nil, err
		}

		conflicts.Inc()
		if attempt >= sm.maxRetries {
			log.WithField("attempts", attempt).Error("giving up on contended match record")
			return nil, fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
		}
		log.WithField("attempt", attempt).Debug("match record conflict, retrying")

		select {
		case <-time.After(time.Duration(attempt) * retryBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (sm *StateMachine) apply(ctx context.Context, key PairKey, actor, target int64, action Action, snap *Snapshot) (*Transition, error) {
	unlock, err := sm.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tr := &Transition{}
	rec, err := sm.store.Update(ctx, key, func(cur *MatchRecord) (*MatchRecord, error) {
		var next *MatchRecord
		if cur == nil {
			tr.Created = true
			next = &MatchRecord{
				User1ID:     actor,
				User2ID:     target,
				User1Action: action,
				User2Action: ActionNone,
			}
		} else {
			tr.Created = false
			next = cur.clone()
			next.setAction(actor, action)
		}

		if snap != nil || cur == nil {
			applySnapshot(next, snap)
		}

		tr.BecameMutual = false
		if next.User1Action == ActionLike && next.User2Action == ActionLike && !next.IsMutual {
			now := sm.now()
			next.IsMutual = true
			next.MatchedAt = &now
			tr.BecameMutual = true
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	tr.Record = rec
	return tr, nil
}

func applySnapshot(r *MatchRecord, snap *Snapshot) {
	if snap == nil {
		return
	}
	r.Distance = snap.Distance
	r.CompatibilityScore = snap.Score
}
