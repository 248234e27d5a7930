package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates(t *testing.T) {
	tests := []struct {
		name      string
		build     func() (Event, error)
		wantType  NotificationType
		wantTitle string
		wantBody  string
		wantKeys  []string
	}{
		{
			name:      "match",
			build:     func() (Event, error) { return MatchEvent(2, 1, "Ama", 7, 85) },
			wantType:  TypeMatch,
			wantTitle: "New match!",
			wantBody:  "You matched with Ama (Score: 85%)",
			wantKeys:  []string{"match_id", "compatibility_score", "user_id"},
		},
		{
			name:      "like received",
			build:     func() (Event, error) { return LikeReceivedEvent(2, 1, "Ama") },
			wantType:  TypeLikeReceived,
			wantTitle: "Someone liked you!",
			wantBody:  "Ama liked you",
			wantKeys:  []string{"liker_id"},
		},
		{
			name:      "anonymous liker",
			build:     func() (Event, error) { return LikeReceivedEvent(2, 1, "") },
			wantType:  TypeLikeReceived,
			wantTitle: "Someone liked you!",
			wantBody:  "Someone liked you",
			wantKeys:  []string{"liker_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, int64(2), ev.RecipientID)
			assert.Equal(t, tt.wantType, ev.Type)
			assert.Equal(t, tt.wantTitle, ev.Title)
			assert.Equal(t, tt.wantBody, ev.Body)
			for _, k := range tt.wantKeys {
				assert.Contains(t, ev.Payload, k)
			}
		})
	}
}

func TestRenderUnknownType(t *testing.T) {
	_, _, err := Render(TypeSystem, nil)
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestNotificationDataStrings(t *testing.T) {
	data := NotificationData{"a": 1, "b": 2.5, "c": "x", "d": nil, "e": float64(1000000)}
	assert.Equal(t, map[string]string{"a": "1", "b": "2.5", "c": "x", "d": "", "e": "1000000"}, data.Strings())
}
