package notifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the inbox router. Mount it behind authentication under
// /api/v1/notifications.
func Routes(handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", handler.GetNotifications)
	r.Put("/read-all", handler.MarkAllAsRead)
	r.Put("/{id}/read", handler.MarkAsRead)
	r.Delete("/{id}", handler.DeleteNotification)

	r.Post("/push-tokens", handler.RegisterPushToken)
	r.Delete("/push-tokens", handler.UnregisterPushToken)

	return r
}
