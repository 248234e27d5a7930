// internal/matching/handlers.go

package matching

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/mye-app/mye-backend/internal/auth"
	"github.com/mye-app/mye-backend/internal/common/utils"
	"github.com/mye-app/mye-backend/internal/directory"
)

type Handler struct {
	service Service
	log     *logrus.Entry
}

func NewHandler(service Service, log *logrus.Entry) *Handler {
	return &Handler{service: service, log: log}
}

// UpdateLocation records the caller's current position
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.CodedErrorResponse(w, "validation_failed", err.Error(), http.StatusUnprocessableEntity)
		return
	}

	resp, err := h.service.UpdateLocation(r.Context(), userID, *req.Latitude, *req.Longitude)
	if err != nil {
		h.respondError(w, err, userID, "update location")
		return
	}

	utils.SuccessResponse(w, resp, http.StatusOK)
}

// GetNearby lists users within the discovery radius
func (h *Handler) GetNearby(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	resp, err := h.service.ListNearby(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, userID, "list nearby users")
		return
	}

	utils.SuccessResponse(w, resp, http.StatusOK)
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Like(r.Context(), userID, targetID)
	if err != nil {
		h.respondError(w, err, userID, "like user")
		return
	}

	message := "Like sent"
	if resp.IsMutual {
		message = "It's a match!"
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{
		Success: true,
		Message: message,
		Data:    resp,
	})
}

func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Pass(r.Context(), userID, targetID); err != nil {
		h.respondError(w, err, userID, "pass user")
		return
	}

	utils.MessageResponse(w, "User passed", http.StatusOK)
}

// GetMatches lists the caller's mutual matches, most recent first
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	resp, err := h.service.ListMatches(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, userID, "list matches")
		return
	}

	utils.SuccessResponse(w, resp, http.StatusOK)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, userID int64, op string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		utils.CodedErrorResponse(w, "validation_failed", verr.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrLocationRequired):
		utils.CodedErrorResponse(w, "location_required", "Please enable location to see nearby users", http.StatusBadRequest)
	case errors.Is(err, ErrSelfTarget):
		utils.CodedErrorResponse(w, "self_target", "You cannot like or pass yourself", http.StatusBadRequest)
	case errors.Is(err, ErrTargetNotFound):
		utils.CodedErrorResponse(w, "target_not_found", "User not found", http.StatusNotFound)
	case errors.Is(err, directory.ErrUserNotFound):
		utils.ErrorResponse(w, "User not found", http.StatusNotFound)
	default:
		h.log.WithError(err).WithField("user_id", userID).Errorf("failed to %s", op)
		utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
