package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mye-app/mye-backend/internal/auth"
	"github.com/mye-app/mye-backend/internal/logger"
)

func serve(t *testing.T, h http.Handler, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInboxHandlers(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, logger.Discard())
	router := Routes(NewHandler(svc, logger.Discard()))

	for i := int64(1); i <= 2; i++ {
		ev, _ := LikeReceivedEvent(9, i, "liker")
		require.NoError(t, svc.Dispatch(context.Background(), ev))
	}

	rec := serve(t, router, http.MethodGet, "/?limit=1", 9, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                  `json:"success"`
		Data    NotificationsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data.Notifications, 1)
	assert.Equal(t, 2, body.Data.UnreadCount)
	assert.True(t, body.Data.HasMore)

	assert.Equal(t, http.StatusOK, serve(t, router, http.MethodPut, "/1/read", 9, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, router, http.MethodPut, "/1/read", 10, "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, router, http.MethodPut, "/abc/read", 9, "").Code)
	assert.Equal(t, http.StatusOK, serve(t, router, http.MethodPut, "/read-all", 9, "").Code)
	assert.Equal(t, http.StatusOK, serve(t, router, http.MethodDelete, "/2", 9, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, router, http.MethodGet, "/", 0, "").Code)
}

func TestPushTokenHandlers(t *testing.T) {
	repo := newMemoryRepo()
	router := Routes(NewHandler(NewService(repo, logger.Discard()), logger.Discard()))

	rec := serve(t, router, http.MethodPost, "/push-tokens", 4, `{"platform":"android","token":"abc","device_id":"pixel"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(t, router, http.MethodPost, "/push-tokens", 4, `{"platform":"symbian","token":"abc","device_id":"nokia"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(t, router, http.MethodPost, "/push-tokens", 4, `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tokens, err := repo.GetUserPushTokens(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)

	rec = serve(t, router, http.MethodDelete, "/push-tokens", 4, `{"token":"abc"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	tokens, err = repo.GetUserPushTokens(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
