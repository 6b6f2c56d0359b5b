package handler

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/moonhowl/werewolf-go/internal/api/apierr"
	"github.com/moonhowl/werewolf-go/internal/api/response"
	"github.com/moonhowl/werewolf-go/internal/model"
	"github.com/moonhowl/werewolf-go/internal/services/room"
)

// RoomHandler handles room-related endpoints
type RoomHandler struct {
	rooms *room.Controller

	// publicURL is the externally visible base URL encoded into join QR
	// codes; when empty the QR carries only the passcode
	publicURL string
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *room.Controller, publicURL string) *RoomHandler {
	return &RoomHandler{
		rooms:     rooms,
		publicURL: publicURL,
	}
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	rm, err := h.rooms.GetRoom(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(rm))
}

// JoinQR handles GET /api/v1/rooms/{id}/qr
// Serves a PNG QR code players can scan to join a not-yet-started room.
func (h *RoomHandler) JoinQR(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	rm, err := h.rooms.GetRoom(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	if !rm.Joinable() {
		apierr.WriteError(w, model.ErrGameAlreadyStarted)
		return
	}

	content := string(rm.Passcode)
	if h.publicURL != "" {
		content = fmt.Sprintf("%s/join?code=%s", h.publicURL, rm.Passcode)
	}

	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}

	response.PNG(w, http.StatusOK, png)
}

// Stats handles GET /api/v1/stats
func (h *RoomHandler) Stats(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListRooms(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	stats := response.Stats{TotalRooms: len(rooms)}
	for _, rm := range rooms {
		if rm.Started {
			stats.ActiveGames++
		}
		stats.TotalPlayers += len(rm.Players)
	}

	response.JSON(w, http.StatusOK, stats)
}

// Health handles GET /api/v1/health
func (h *RoomHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
