// internal/matching/service.go

package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mye-app/mye-backend/internal/directory"
	"github.com/mye-app/mye-backend/internal/geo"
	"github.com/mye-app/mye-backend/internal/notifications"
)

// Service is the matching API used by the HTTP layer.
type Service interface {
	UpdateLocation(ctx context.Context, userID int64, latitude, longitude float64) (*LocationResponse, error)
	ListNearby(ctx context.Context, userID int64) (*NearbyResponse, error)
	Like(ctx context.Context, userID, targetID int64) (*LikeResponse, error)
	Pass(ctx context.Context, userID, targetID int64) error
	ListMatches(ctx context.Context, userID int64) (*MatchesResponse, error)
}

type service struct {
	dir        directory.Directory
	store      MatchStore
	proximity  *ProximityIndex
	machine    *StateMachine
	dispatcher notifications.Dispatcher
	now        func() time.Time
	log        *logrus.Entry
}

func NewService(
	dir directory.Directory,
	store MatchStore,
	machine *StateMachine,
	dispatcher notifications.Dispatcher,
	log *logrus.Entry,
) Service {
	return &service{
		dir:        dir,
		store:      store,
		proximity:  NewProximityIndex(dir, store),
		machine:    machine,
		dispatcher: dispatcher,
		now:        time.Now,
		log:        log,
	}
}

func (s *service) UpdateLocation(ctx context.Context, userID int64, latitude, longitude float64) (*LocationResponse, error) {
	if !inRange(latitude, 90) {
		return nil, &ValidationError{Field: "latitude", Message: "must be between -90 and 90"}
	}
	if !inRange(longitude, 180) {
		return nil, &ValidationError{Field: "longitude", Message: "must be between -180 and 180"}
	}
	p := geo.Point{Latitude: latitude, Longitude: longitude}

	at := s.now().UTC()
	if err := s.dir.UpdatePosition(ctx, userID, p, at); err != nil {
		return nil, fmt.Errorf("update position: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"latitude":  latitude,
		"longitude": longitude,
	}).Info("location updated")

	return &LocationResponse{
		Latitude:          latitude,
		Longitude:         longitude,
		LocationUpdatedAt: at,
	}, nil
}

func (s *service) ListNearby(ctx context.Context, userID int64) (*NearbyResponse, error) {
	users, err := s.proximity.Nearby(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NearbyResponse{Users: users, Count: len(users)}, nil
}

func (s *service) Like(ctx context.Context, userID, targetID int64) (*LikeResponse, error) {
	if userID == targetID {
		return nil, ErrSelfTarget
	}

	me, target, err := s.loadPair(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}

	distance, known := geo.Distance(me.Position, target.Position)
	score := CompatibilityScore(me, target)

	snap := &Snapshot{Score: &score}
	if known {
		snap.Distance = &distance
	}

	tr, err := s.machine.RecordAction(ctx, userID, targetID, ActionLike, snap)
	if err != nil {
		return nil, err
	}
	rec := tr.Record

	actionsRecorded.WithLabelValues(string(ActionLike)).Inc()
	compatibilityScores.Observe(float64(score))

	if tr.BecameMutual {
		mutualMatches.Inc()
		s.notify(ctx, func() (notifications.Event, error) {
			return notifications.MatchEvent(targetID, userID, me.Name, rec.ID, score)
		})
		s.notify(ctx, func() (notifications.Event, error) {
			return notifications.MatchEvent(userID, targetID, target.Name, rec.ID, score)
		})
	} else {
		s.notify(ctx, func() (notifications.Event, error) {
			return notifications.LikeReceivedEvent(targetID, userID, me.Name)
		})
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"target_id": targetID,
		"is_mutual": rec.IsMutual,
		"score":     score,
	}).Info("like recorded")

	resp := &LikeResponse{
		MatchID:            rec.ID,
		IsMutual:           rec.IsMutual,
		MatchedAt:          rec.MatchedAt,
		CompatibilityScore: score,
	}
	if known {
		resp.Distance = roundedMeters(&distance)
	}
	return resp, nil
}

func (s *service) Pass(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return ErrSelfTarget
	}

	if _, err := s.dir.GetUser(ctx, targetID); err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return ErrTargetNotFound
		}
		return fmt.Errorf("get target: %w", err)
	}

	if _, err := s.machine.RecordAction(ctx, userID, targetID, ActionPass, nil); err != nil {
		return err
	}
	actionsRecorded.WithLabelValues(string(ActionPass)).Inc()

	s.log.WithFields(logrus.Fields{"user_id": userID, "target_id": targetID}).Info("pass recorded")
	return nil
}

func (s *service) ListMatches(ctx context.Context, userID int64) (*MatchesResponse, error) {
	records, err := s.store.ListMutual(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list mutual matches: %w", err)
	}

	others := make([]int64, len(records))
	for i, rec := range records {
		others[i] = rec.OtherUser(userID)
	}
	profiles, err := directory.NewProfileLoader(s.dir).LoadMany(ctx, others)
	if err != nil {
		return nil, fmt.Errorf("load matched users: %w", err)
	}

	matches := make([]MatchCard, 0, len(records))
	for _, rec := range records {
		other, ok := profiles[rec.OtherUser(userID)]
		if !ok || rec.MatchedAt == nil {
			continue
		}
		matches = append(matches, MatchCard{
			MatchID:            rec.ID,
			User:               newUserCard(other),
			Distance:           roundedMeters(rec.Distance),
			CompatibilityScore: rec.CompatibilityScore,
			MatchedAt:          *rec.MatchedAt,
		})
	}

	return &MatchesResponse{Matches: matches, Count: len(matches)}, nil
}

func inRange(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}

// loadPair resolves the acting user and the target in one directory round trip.
func (s *service) loadPair(ctx context.Context, userID, targetID int64) (*directory.UserProfile, *directory.UserProfile, error) {
	profiles, err := directory.NewProfileLoader(s.dir).LoadMany(ctx, []int64{userID, targetID})
	if err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}
	target, ok := profiles[targetID]
	if !ok {
		return nil, nil, ErrTargetNotFound
	}
	me, ok := profiles[userID]
	if !ok {
		return nil, nil, directory.ErrUserNotFound
	}
	return me, target, nil
}

// notify hands an event to the dispatcher. Delivery problems never fail the
// calling operation.
func (s *service) notify(ctx context.Context, build func() (notifications.Event, error)) {
	ev, err := build()
	if err == nil {
		err = s.dispatcher.Dispatch(ctx, ev)
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"recipient_id": ev.RecipientID,
			"type":         ev.Type,
		}).Warn("notification not delivered")
	}
}
