package web

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"inklore/server/internal/engine"
	"inklore/server/internal/session"
	"inklore/server/internal/storage"
	"inklore/server/internal/story"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Handlers serves the adventure API against one live session.
type Handlers struct {
	session *session.Session
	hub     *TranscriptHub
	log     zerolog.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(sess *session.Session, hub *TranscriptHub, log zerolog.Logger) *Handlers {
	return &Handlers{
		session: sess,
		hub:     hub,
		log:     log,
	}
}

// NewAdventureRequest starts a fresh adventure.
type NewAdventureRequest struct {
	Name    string `json:"name"`
	Context string `json:"context,omitempty"`
	Opening string `json:"opening,omitempty"`
}

// SendRequest carries one player action.
type SendRequest struct {
	Text string `json:"text"`
}

// EditRequest targets one transcript entry, e.g. "c", "m", "a4", "r5".
type EditRequest struct {
	Target string `json:"target"`
	Text   string `json:"text,omitempty"`
}

// LoadRequest names a save to restore.
type LoadRequest struct {
	Key string `json:"key"`
}

// AdventureResponse is the common response envelope.
type AdventureResponse struct {
	Success    bool     `json:"success"`
	Result     string   `json:"result,omitempty"`
	Transcript []string `json:"transcript,omitempty"`
	Rendered   string   `json:"rendered,omitempty"`
	Key        string   `json:"key,omitempty"`
	Saves      []string `json:"saves,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp AdventureResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrGenerationTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, engine.ErrGeneration):
		status = http.StatusBadGateway
	case errors.Is(err, session.ErrMalformedSelection),
		errors.Is(err, story.ErrFieldOutOfRange),
		errors.Is(err, story.ErrUnknownField):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNoAdventure):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrRecordNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, AdventureResponse{Success: false, Error: err.Error()})
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "inklore",
	})
}

// NewAdventure starts a new game, optionally generating the opening scene.
func (h *Handlers) NewAdventure(w http.ResponseWriter, r *http.Request) {
	var req NewAdventureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AdventureResponse{Success: false, Error: "Invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, AdventureResponse{Success: false, Error: "name is required"})
		return
	}

	result, err := h.session.NewGame(r.Context(), req.Name, req.Context, req.Opening)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdventureResponse{Success: true, Result: result})
}

// Send submits one action and returns the generated result.
func (h *Handlers) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AdventureResponse{Success: false, Error: "Invalid request body"})
		return
	}

	result, err := h.session.Send(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdventureResponse{Success: true, Result: result})
}

// GetTranscript returns the full transcript, both raw and rendered.
func (h *Handlers) GetTranscript(w http.ResponseWriter, r *http.Request) {
	entries, err := h.session.Transcript()
	if err != nil {
		writeError(w, err)
		return
	}
	rendered, err := h.session.Rendered()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdventureResponse{Success: true, Transcript: entries, Rendered: rendered})
}

// LoadForEdit returns the current text of the targeted entry.
func (h *Handlers) LoadForEdit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AdventureResponse{Success: false, Error: "Invalid request body"})
		return
	}

	text, err := h.session.LoadForEdit(req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdventureResponse{Success: true, Result: text})
}

// ApplyEdit rewrites the targeted entry.
func (h *Handlers) ApplyEdit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AdventureResponse{Success: false, Error: "Invalid request body"})
		return
	}

	value, err := h.session.ApplyEdit(req.Target, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdventureResponse{Success: true, Result: value})
}

// SaveAdventure persists the live game.
func (h *Handlers) SaveAdventure(w http.ResponseWriter, r *http.Request) {
	key, err := h.session.SaveGame(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdventureResponse{Success: true, Key: key})
}

// LoadAdventure restores a saved game.
func (h *Handlers) LoadAdventure(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AdventureResponse{Success: false, Error: "Invalid request body"})
		return
	}
	if req.Key == "" {
		writeJSON(w, http.StatusBadRequest, AdventureResponse{Success: false, Error: "key is required"})
		return
	}

	if err := h.session.LoadGame(r.Context(), req.Key); err != nil {
		writeError(w, err)
		return
	}
	rendered, _ := h.session.Rendered()
	writeJSON(w, http.StatusOK, AdventureResponse{Success: true, Key: req.Key, Rendered: rendered})
}

// ListSaves enumerates stored save keys.
func (h *Handlers) ListSaves(w http.ResponseWriter, r *http.Request) {
	saves, err := h.session.ListSaves(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if saves == nil {
		saves = []string{}
	}
	writeJSON(w, http.StatusOK, AdventureResponse{Success: true, Saves: saves})
}

// GetTranscriptStream upgrades to a WebSocket that receives transcript
// updates after every recorded turn, edit and load.
func (h *Handlers) GetTranscriptStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &Client{
		ID:   generateClientID(),
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  h.hub,
	}
	h.hub.register <- client

	// Push the current transcript so a new viewer is not blank until the
	// next turn.
	if rendered, err := h.session.Rendered(); err == nil {
		welcome, _ := json.Marshal(map[string]interface{}{
			"type":       "transcript",
			"transcript": rendered,
			"time":       time.Now().Unix(),
		})
		select {
		case client.Send <- welcome:
		default:
		}
	}

	go client.readPump()
}

// CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter wires the adventure API.
func NewRouter(sess *session.Session, hub *TranscriptHub, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, req)
			log.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	})
	r.Use(corsMiddleware)

	handlers := NewHandlers(sess, hub, log)

	r.Get("/health", handlers.HealthCheck)
	r.Get("/stream", handlers.GetTranscriptStream)

	r.Route("/api/v1/adventure", func(r chi.Router) {
		r.Post("/new", handlers.NewAdventure)
		r.Post("/send", handlers.Send)
		r.Get("/transcript", handlers.GetTranscript)
		r.Post("/edit/load", handlers.LoadForEdit)
		r.Post("/edit", handlers.ApplyEdit)
		r.Post("/save", handlers.SaveAdventure)
		r.Post("/load", handlers.LoadAdventure)
		r.Get("/saves", handlers.ListSaves)
	})

	return r
}

// generateClientID generates a unique client ID
func generateClientID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:16]
	}
	return hex.EncodeToString(b)
}
