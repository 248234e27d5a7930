// internal/notifications/templates.go

package notifications

import (
	"bytes"
	"fmt"
	"text/template"
)

type messageTemplate struct {
	title *template.Template
	body  *template.Template
}

var templates = map[NotificationType]messageTemplate{
	TypeMatch: {
		title: template.Must(template.New("match_title").Parse("New match!")),
		body:  template.Must(template.New("match_body").Parse("You matched with {{.name}} (Score: {{.score}}%)")),
	},
	TypeLikeReceived: {
		title: template.Must(template.New("like_title").Parse("Someone liked you!")),
		body:  template.Must(template.New("like_body").Parse("{{.name}} liked you")),
	},
}

// Render fills in the title and body template registered for typ.
func Render(typ NotificationType, vars map[string]interface{}) (title, body string, err error) {
	tmpl, ok := templates[typ]
	if !ok {
		return "", "", fmt.Errorf("%w: no template for %q", ErrInvalidType, typ)
	}

	if title, err = execute(tmpl.title, vars); err != nil {
		return "", "", fmt.Errorf("failed to render title: %w", err)
	}
	if body, err = execute(tmpl.body, vars); err != nil {
		return "", "", fmt.Errorf("failed to render body: %w", err)
	}
	return title, body, nil
}

func execute(t *template.Template, vars map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MatchEvent tells recipient they matched with otherName.
func MatchEvent(recipientID, otherID int64, otherName string, matchID int64, score int) (Event, error) {
	title, body, err := Render(TypeMatch, map[string]interface{}{
		"name":  displayName(otherName),
		"score": score,
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		RecipientID: recipientID,
		Type:        TypeMatch,
		Title:       title,
		Body:        body,
		Payload: NotificationData{
			"match_id":            matchID,
			"compatibility_score": score,
			"user_id":             otherID,
		},
	}, nil
}

// LikeReceivedEvent tells recipient that likerName liked them.
func LikeReceivedEvent(recipientID, likerID int64, likerName string) (Event, error) {
	title, body, err := Render(TypeLikeReceived, map[string]interface{}{
		"name": displayName(likerName),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		RecipientID: recipientID,
		Type:        TypeLikeReceived,
		Title:       title,
		Body:        body,
		Payload: NotificationData{
			"liker_id": likerID,
		},
	}, nil
}

func displayName(name string) string {
	if name == "" {
		return "Someone"
	}
	return name
}
