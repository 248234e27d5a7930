// internal/notifications/events.go
// Publishes dispatched notifications to NATS JetStream for downstream consumers

package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	streamName    = "MYE"
	subjectPrefix = "mye.notifications."
)

// EventPublisher fans notifications out to other services.
type EventPublisher interface {
	Publish(ctx context.Context, n *Notification) error
}

// NotificationEvent is the JSON body published for every notification.
type NotificationEvent struct {
	EventID        string           `json:"event_id"`
	NotificationID int64            `json:"notification_id"`
	UserID         int64            `json:"user_id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Body           string           `json:"body"`
	Data           NotificationData `json:"data"`
	Timestamp      int64            `json:"timestamp"`
	Source         string           `json:"source"`
}

// NATSPublisher publishes to the MYE stream.
type NATSPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	source string
	log    *logrus.Entry
}

// NewNATSPublisher connects to natsURL and makes sure the stream exists.
func NewNATSPublisher(natsURL, source string, log *logrus.Entry) (*NATSPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name(source))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectPrefix + ">"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		log.WithError(err).Warn("failed to create MYE stream (may already exist)")
	}

	return &NATSPublisher{nc: nc, js: js, source: source, log: log}, nil
}

// Subject returns the subject a notification of type t is published on.
func Subject(t NotificationType) string {
	return subjectPrefix + string(t)
}

func (p *NATSPublisher) Publish(ctx context.Context, n *Notification) error {
	event := NotificationEvent{
		EventID:        uuid.NewString(),
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Title:          n.Title,
		Body:           n.Body,
		Data:           n.Data,
		Timestamp:      time.Now().Unix(),
		Source:         p.source,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := Subject(n.Type)
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.EventID)); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	p.log.WithField("subject", subject).Debug("published event")
	return nil
}

func (p *NATSPublisher) Close() {
	p.nc.Close()
}
