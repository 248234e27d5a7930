// internal/notifications/models.go

package notifications

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// NotificationType represents different notification types
type NotificationType string

const (
	TypeConnectionRequest  NotificationType = "connection_request"
	TypeConnectionAccepted NotificationType = "connection_accepted"
	TypeMatch              NotificationType = "match"
	TypeMessage            NotificationType = "message"
	TypeLikeReceived       NotificationType = "like_received"
	TypeProfileView        NotificationType = "profile_view"
	TypeSystem             NotificationType = "system"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeConnectionRequest, TypeConnectionAccepted, TypeMatch, TypeMessage,
		TypeLikeReceived, TypeProfileView, TypeSystem:
		return true
	}
	return false
}

// Platform represents device platforms
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// Event is what producers hand to the dispatcher.
type Event struct {
	RecipientID int64
	Type        NotificationType
	Title       string
	Body        string
	Payload     NotificationData
}

// Notification represents a stored notification
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	Data      NotificationData `json:"data" db:"data"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// NotificationData is the structured payload stored as JSONB
type NotificationData map[string]interface{}

// Scan implements sql.Scanner interface
func (nd *NotificationData) Scan(value interface{}) error {
	if value == nil {
		*nd = make(NotificationData)
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported notification data type %T", value)
	}
	return json.Unmarshal(raw, nd)
}

// Value implements driver.Valuer interface
func (nd NotificationData) Value() (driver.Value, error) {
	if nd == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(nd)
}

// Strings renders every value as a string, the only value type FCM data accepts.
func (nd NotificationData) Strings() map[string]string {
	out := make(map[string]string, len(nd))
	for k, v := range nd {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// PushToken represents a device push token
type PushToken struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Platform  Platform  `json:"platform" db:"platform"`
	Token     string    `json:"token" db:"token"`
	DeviceID  string    `json:"device_id" db:"device_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PushNotification represents a push notification
type PushNotification struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// PushResult summarizes a multicast send.
type PushResult struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
}

// RegisterPushTokenRequest represents request to register a push token
type RegisterPushTokenRequest struct {
	Platform Platform `json:"platform" validate:"required,oneof=ios android web"`
	Token    string   `json:"token" validate:"required,max=4096"`
	DeviceID string   `json:"device_id" validate:"required,max=255"`
}

// UnregisterPushTokenRequest represents request to drop a push token
type UnregisterPushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// NotificationsResponse represents paginated notifications response
type NotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
	TotalCount    int             `json:"total_count"`
	UnreadCount   int             `json:"unread_count"`
	HasMore       bool            `json:"has_more"`
}

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidType          = errors.New("invalid notification type")
	ErrDeliveryFailed       = errors.New("notification delivery failed")
)
