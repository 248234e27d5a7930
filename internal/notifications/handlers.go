// internal/notifications/handlers.go

package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/mye-app/mye-backend/internal/auth"
	"github.com/mye-app/mye-backend/internal/common/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	service Service
	log     *logrus.Entry
}

func NewHandler(service Service, log *logrus.Entry) *Handler {
	return &Handler{service: service, log: log}
}

// GetNotifications lists the caller's notifications, newest first
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	response, err := h.service.GetNotifications(r.Context(), userID, limit, offset, unreadOnly)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("failed to list notifications")
		utils.ErrorResponse(w, "Failed to get notifications", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, response, http.StatusOK)
}

// MarkAsRead marks a notification as read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, notificationID, ok := h.notificationParams(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkAsRead(r.Context(), notificationID, userID); err != nil {
		h.respondError(w, err, "Failed to mark notification as read")
		return
	}

	utils.MessageResponse(w, "Notification marked as read", http.StatusOK)
}

// MarkAllAsRead marks every unread notification of the caller as read
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	n, err := h.service.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "Failed to mark notifications as read")
		return
	}

	utils.SuccessResponse(w, map[string]int64{"updated": n}, http.StatusOK)
}

// DeleteNotification deletes one of the caller's notifications
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, notificationID, ok := h.notificationParams(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteNotification(r.Context(), notificationID, userID); err != nil {
		h.respondError(w, err, "Failed to delete notification")
		return
	}

	utils.MessageResponse(w, "Notification deleted", http.StatusOK)
}

// RegisterPushToken stores the device token used for FCM delivery
func (h *Handler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req RegisterPushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	token, err := h.service.RegisterPushToken(r.Context(), userID, &req)
	if err != nil {
		h.respondError(w, err, "Failed to register push token")
		return
	}

	utils.SuccessResponse(w, token, http.StatusCreated)
}

// UnregisterPushToken removes a device token
func (h *Handler) UnregisterPushToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UnregisterPushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := h.service.UnregisterPushToken(r.Context(), userID, req.Token); err != nil {
		h.respondError(w, err, "Failed to unregister push token")
		return
	}

	utils.MessageResponse(w, "Push token removed", http.StatusOK)
}

func (h *Handler) notificationParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return 0, 0, false
	}

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid notification ID", http.StatusBadRequest)
		return 0, 0, false
	}
	return userID, notificationID, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, ErrNotificationNotFound) {
		utils.ErrorResponse(w, "Notification not found", http.StatusNotFound)
		return
	}
	h.log.WithError(err).Error(message)
	utils.ErrorResponse(w, message, http.StatusInternalServerError)
}
