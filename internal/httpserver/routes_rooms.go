// internal/httpserver/routes_rooms.go
//
// Multiplayer rooms. All routes require auth.
//   - GET  /rooms              → open rooms
//   - POST /rooms              → create (caller becomes host)
//   - GET  /rooms/{id}         → snapshot
//   - POST /rooms/{id}/join|leave|start|guess
//   - GET  /rooms/{id}/ws      → snapshot stream (registered in server.go, outside the timeout group)

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/TonyXvr/DigitGuesser/internal/game"
	"github.com/TonyXvr/DigitGuesser/internal/metrics"
	"github.com/TonyXvr/DigitGuesser/internal/rooms"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

type createRoomReq struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
	Difficulty string `json:"difficulty"`
	Digits     int    `json:"digits"`
}

type roomGuessReq struct {
	Guess string `json:"guess"`
}

// roomEvent is the frame pushed over the room WebSocket.
type roomEvent struct {
	Type string     `json:"type"` // "room" | "closed"
	Room rooms.Room `json:"room,omitempty"`
}

func (s *Server) mountRoomRoutes(r chi.Router, guessLimit func(http.Handler) http.Handler) {
	r.Route("/rooms", func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Get("/", s.handleListRooms)
		r.Post("/", s.handleCreateRoom)
		r.Get("/{id}", s.handleGetRoom)
		r.Post("/{id}/join", s.handleJoinRoom)
		r.Post("/{id}/leave", s.handleLeaveRoom)
		r.Post("/{id}/start", s.handleStartRoom)
		r.With(guessLimit).Post("/{id}/guess", s.handleRoomGuess)
	})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": s.rooms.Available()})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var body createRoomReq
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Difficulty == "" {
		body.Difficulty = string(game.Medium)
	}
	diff, err := game.ParseDifficulty(body.Difficulty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if body.Digits == 0 {
		body.Digits = 4
	}
	me := currentUser(r)
	room, err := s.rooms.Create(me.ID, me.Nickname, rooms.CreateOptions{
		Name:       body.Name,
		MaxPlayers: body.MaxPlayers,
		Difficulty: diff,
		Digits:     body.Digits,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	metrics.ActiveRooms.Set(float64(s.rooms.Count()))
	writeJSON(w, http.StatusCreated, room)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.rooms.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	room, err := s.rooms.Join(chi.URLParam(r, "id"), me.ID, me.Nickname)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.rooms.Leave(chi.URLParam(r, "id"), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	metrics.ActiveRooms.Set(float64(s.rooms.Count()))
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleStartRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.rooms.Start(chi.URLParam(r, "id"), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleRoomGuess(w http.ResponseWriter, r *http.Request) {
	var body roomGuessReq
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.rooms.Guess(chi.URLParam(r, "id"), currentUser(r).ID, body.Guess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	metrics.ObserveGuess("room", res.Won)
	writeJSON(w, http.StatusOK, res)
}

// ------------------------------- websocket ---------------------------------

func (s *Server) upgrader() websocket.Upgrader {
	allowed := s.cfg.Server.ClientOrigin
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed == "" || origin == allowed
		},
	}
}

// handleRoomWS streams room snapshots to a member until either side hangs up.
// Incoming frames are read only to process pongs and close.
func (s *Server) handleRoomWS(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	id := chi.URLParam(r, "id")
	room, err := s.rooms.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, ok := room.Player(me.ID); !ok {
		writeError(w, r, rooms.ErrNotInRoom)
		return
	}
	updates, cancel, err := s.rooms.Subscribe(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		log.Warn().Err(err).Str("room", id).Msg("ws upgrade")
		return
	}

	go readPump(conn, cancel)
	writePump(conn, updates)
	log.Debug().Str("room", id).Str("player", me.ID).Msg("ws closed")
}

func readPump(conn *websocket.Conn, cancel func()) {
	defer cancel()
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, updates <-chan rooms.Room) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case room, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteJSON(roomEvent{Type: "closed"})
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(roomEvent{Type: "room", Room: room}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
