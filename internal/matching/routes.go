package matching

import (
	"github.com/gorilla/mux"

	"github.com/mye-app/mye-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/matching").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Location and discovery
	api.HandleFunc("/location", handler.UpdateLocation).Methods("POST")
	api.HandleFunc("/nearby", handler.GetNearby).Methods("GET")

	// Interactions
	api.HandleFunc("/users/{id:[0-9]+}/like", handler.Like).Methods("POST")
	api.HandleFunc("/users/{id:[0-9]+}/pass", handler.Pass).Methods("POST")
	api.HandleFunc("/matches", handler.GetMatches).Methods("GET")
}
