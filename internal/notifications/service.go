// internal/notifications/service.go

package notifications

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher accepts notification events from producers.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

type Service interface {
	Dispatcher

	GetNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) (*NotificationsResponse, error)
	MarkAsRead(ctx context.Context, notificationID int64, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	DeleteNotification(ctx context.Context, notificationID int64, userID int64) error

	RegisterPushToken(ctx context.Context, userID int64, req *RegisterPushTokenRequest) (*PushToken, error)
	UnregisterPushToken(ctx context.Context, userID int64, token string) error

	CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Realtime delivers messages to connected clients.
type Realtime interface {
	Send(userID int64, msg Message) int
}

type service struct {
	repo      Repository
	push      PushService
	realtime  Realtime
	publisher EventPublisher
	log       *logrus.Entry
}

// Option configures optional delivery channels.
type Option func(*service)

func WithPush(p PushService) Option { return func(s *service) { s.push = p } }
func WithRealtime(r Realtime) Option { return func(s *service) { s.realtime = r } }
func WithPublisher(p EventPublisher) Option { return func(s *service) { s.publisher = p } }

func NewService(repo Repository, log *logrus.Entry, opts ...Option) Service {
	s := &service{repo: repo, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch persists the notification and then fans it out over realtime,
// the event stream and push. Only persistence and push failures are
// returned; the other channels log and move on.
func (s *service) Dispatch(ctx context.Context, ev Event) error {
	if !ev.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, ev.Type)
	}

	notification := &Notification{
		UserID: ev.RecipientID,
		Type:   ev.Type,
		Title:  ev.Title,
		Body:   ev.Body,
		Data:   ev.Payload,
	}
	if notification.Data == nil {
		notification.Data = NotificationData{}
	}

	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		deliveries.WithLabelValues("store", "error").Inc()
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	deliveries.WithLabelValues("store", "ok").Inc()

	log := s.log.WithFields(logrus.Fields{
		"notification_id": notification.ID,
		"user_id":         notification.UserID,
		"type":            notification.Type,
	})

	if s.realtime != nil {
		n := s.realtime.Send(notification.UserID, Message{
			Type:   string(notification.Type),
			UserID: notification.UserID,
			Data:   notification,
		})
		if n > 0 {
			deliveries.WithLabelValues("websocket", "ok").Add(float64(n))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, notification); err != nil {
			deliveries.WithLabelValues("nats", "error").Inc()
			log.WithError(err).Warn("failed to publish notification event")
		} else {
			deliveries.WithLabelValues("nats", "ok").Inc()
		}
	}

	if err := s.sendPush(ctx, notification); err != nil {
		deliveries.WithLabelValues("push", "error").Inc()
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	log.Info("notification dispatched")
	return nil
}

func (s *service) sendPush(ctx context.Context, notification *Notification) error {
	if s.push == nil {
		return nil
	}

	tokens, err := s.repo.GetUserPushTokens(ctx, notification.UserID)
	if err != nil {
		return fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	tokenStrings := make([]string, len(tokens))
	for i, token := range tokens {
		tokenStrings[i] = token.Token
	}

	data := notification.Data.Strings()
	data["notification_id"] = strconv.FormatInt(notification.ID, 10)
	data["type"] = string(notification.Type)

	result, err := s.push.SendPush(ctx, &PushNotification{
		Tokens: tokenStrings,
		Title:  notification.Title,
		Body:   notification.Body,
		Data:   data,
	})
	if result != nil {
		if len(result.InvalidTokens) > 0 {
			if derr := s.repo.DeactivatePushTokens(ctx, result.InvalidTokens); derr != nil {
				s.log.WithError(derr).Warn("failed to deactivate push tokens")
			}
		}
		if result.SuccessCount > 0 {
			deliveries.WithLabelValues("push", "ok").Add(float64(result.SuccessCount))
		}
	}
	return err
}

func (s *service) GetNotifications(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) (*NotificationsResponse, error) {
	notifications, err := s.repo.GetUserNotifications(ctx, userID, limit, offset, unreadOnly)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.GetUserNotificationCount(ctx, userID, unreadOnly)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.GetUserNotificationCount(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	return &NotificationsResponse{
		Notifications: notifications,
		TotalCount:    total,
		UnreadCount:   unread,
		HasMore:       offset+len(notifications) < total,
	}, nil
}

func (s *service) MarkAsRead(ctx context.Context, notificationID int64, userID int64) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *service) DeleteNotification(ctx context.Context, notificationID int64, userID int64) error {
	return s.repo.DeleteNotification(ctx, notificationID, userID)
}

func (s *service) RegisterPushToken(ctx context.Context, userID int64, req *RegisterPushTokenRequest) (*PushToken, error) {
	token := &PushToken{
		UserID:   userID,
		Platform: req.Platform,
		Token:    req.Token,
		DeviceID: req.DeviceID,
	}
	if err := s.repo.SavePushToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *service) UnregisterPushToken(ctx context.Context, userID int64, token string) error {
	return s.repo.DeletePushToken(ctx, userID, token)
}

// CleanupOldNotifications drops read notifications older than the retention window
func (s *service) CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("retention must be positive")
	}
	n, err := s.repo.DeleteReadBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	s.log.WithField("deleted", n).Info("old notifications cleaned up")
	return n, nil
}
