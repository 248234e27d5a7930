// internal/notifications/push.go

package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// PushService delivers push notifications to devices
type PushService interface {
	SendPush(ctx context.Context, notification *PushNotification) (*PushResult, error)
}

// FCMPushService implements push notifications using Firebase Cloud Messaging
type FCMPushService struct {
	client *messaging.Client
	log    *logrus.Entry
}

// NewFCMPushService creates a new FCM push service from a credentials file
// path or inline credentials JSON. The path wins when both are set.
func NewFCMPushService(ctx context.Context, credentialsPath, credentialsJSON string, log *logrus.Entry) (*FCMPushService, error) {
	var opt option.ClientOption
	switch {
	case credentialsPath != "":
		opt = option.WithCredentialsFile(credentialsPath)
	case credentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	default:
		return nil, errors.New("FCM credentials path or JSON must be set")
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMPushService{client: client, log: log}, nil
}

// SendPush sends one multicast message to every token
func (s *FCMPushService) SendPush(ctx context.Context, notification *PushNotification) (*PushResult, error) {
	if len(notification.Tokens) == 0 {
		return &PushResult{}, nil
	}

	badge := 1
	message := &messaging.MulticastMessage{
		Tokens: notification.Tokens,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: notification.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "high_importance_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: &badge,
				},
			},
		},
	}

	resp, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("fcm multicast: %w", err)
	}

	result := &PushResult{SuccessCount: resp.SuccessCount, FailureCount: resp.FailureCount}
	for i, r := range resp.Responses {
		if r.Success || r.Error == nil {
			continue
		}
		if messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
			result.InvalidTokens = append(result.InvalidTokens, notification.Tokens[i])
			continue
		}
		s.log.WithError(r.Error).Warn("push delivery failed for token")
	}

	if resp.SuccessCount == 0 && len(result.InvalidTokens) < len(notification.Tokens) {
		return result, fmt.Errorf("fcm rejected all %d messages", len(notification.Tokens))
	}
	return result, nil
}

// MockPushService records pushes instead of sending them. Used when push is
// disabled and in tests.
type MockPushService struct {
	mu   sync.Mutex
	sent []*PushNotification
	Err  error
}

func NewMockPushService() *MockPushService {
	return &MockPushService{}
}

func (m *MockPushService) SendPush(_ context.Context, notification *PushNotification) (*PushResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	m.sent = append(m.sent, notification)
	return &PushResult{SuccessCount: len(notification.Tokens)}, nil
}

// Sent returns a copy of everything pushed so far.
func (m *MockPushService) Sent() []*PushNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*PushNotification(nil), m.sent...)
}
