package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/moonhowl/werewolf-go/internal/api/handler"
	apimiddleware "github.com/moonhowl/werewolf-go/internal/api/middleware"
	"github.com/moonhowl/werewolf-go/internal/middleware"
	"github.com/moonhowl/werewolf-go/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	RoomController *room.Controller

	// PublicURL is the externally visible base URL used in join QR codes
	PublicURL string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.RoomController, cfg.PublicURL)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(apimiddleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", roomHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/stats", roomHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}/qr", roomHandler.JoinQR).Methods(http.MethodGet)

	return r
}
