// Package server exposes the dialog engine over HTTP. Each browser gets a
// uuid conversation cookie; each conversation owns its own session, so staged
// actions never leak across users.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Marksalz/AISecretary/internal/calendar"
	"github.com/Marksalz/AISecretary/internal/dialog"
)

const conversationCookie = "conversation_id"

// MessageHandler is what the server needs from the dialog engine.
type MessageHandler interface {
	HandleMessage(ctx context.Context, sess *dialog.Session, message string) dialog.Reply
}

// conversation pairs a session with the mutex that serializes its turns.
// One message produces exactly one reply before the next is accepted.
type conversation struct {
	session *dialog.Session
	lastUse time.Time
	mu      sync.Mutex
}

type Server struct {
	engine MessageHandler
	creds  calendar.Credentials
	addr   string

	mu       sync.Mutex
	sessions map[string]*conversation
}

func New(engine MessageHandler, creds calendar.Credentials, addr string) *Server {
	if addr == "" {
		addr = ":8080"
	}
	return &Server{
		engine:   engine,
		creds:    creds,
		addr:     addr,
		sessions: make(map[string]*conversation),
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/health", s.handleHealth)

	go s.cleanupLoop(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		log.Println("[server] shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[server] listening on %s", s.addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	message := strings.TrimSpace(req.Message)
	if len(message) < 3 {
		writeError(w, http.StatusBadRequest, "message must be at least 3 characters long")
		return
	}

	conv, id := s.session(r)
	http.SetCookie(w, &http.Cookie{
		Name:     conversationCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})

	// Turns for one conversation run strictly one at a time; a concurrent
	// request with the same cookie waits here instead of racing the staged
	// action.
	conv.mu.Lock()
	reply := s.engine.HandleMessage(r.Context(), conv.session, message)
	conv.mu.Unlock()
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session resolves the conversation cookie to its conversation, creating both
// on first contact.
func (s *Server) session(r *http.Request) (*conversation, string) {
	id := ""
	if c, err := r.Cookie(conversationCookie); err == nil && c.Value != "" {
		id = c.Value
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.sessions[id]
	if !ok {
		conv = &conversation{session: dialog.NewSession(s.creds)}
		s.sessions[id] = conv
	}
	conv.lastUse = time.Now()
	return conv, id
}

func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireIdle(2 * time.Hour)
		}
	}
}

// expireIdle drops conversations that have been inactive longer than maxIdle.
// A client minting fresh cookies otherwise grows the session map forever.
func (s *Server) expireIdle(maxIdle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, conv := range s.sessions {
		if time.Since(conv.lastUse) > maxIdle {
			delete(s.sessions, id)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
