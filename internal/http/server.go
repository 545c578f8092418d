// Package http exposes the fleet orchestrator over a JSON control
// surface: one admin-authenticated endpoint per action, a status view,
// and a live log stream.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fleetbot/internal/config"
	"fleetbot/internal/domain"
	"fleetbot/internal/fleet"
	"fleetbot/internal/logsink"
)

type contextKey string

const contextKeyAdminSubject contextKey = "admin_subject"

// sseKeepalive bounds how long an idle stream goes without traffic, so
// proxies between the operator and the server do not drop it.
const sseKeepalive = 15 * time.Second

type Server struct {
	cfg   config.Config
	fleet *fleet.Manager
	logs  *logsink.Buffer
}

func NewServer(cfg config.Config, mgr *fleet.Manager, logs *logsink.Buffer) *Server {
	return &Server{cfg: cfg, fleet: mgr, logs: logs}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Post("/admin/login", s.handleAdminLogin)

	r.Group(func(protected chi.Router) {
		protected.Use(s.requireAdmin)
		protected.Post("/api/init", s.handleInit)
		protected.Get("/api/status", s.handleStatus)

		protected.Post("/api/follow", s.handleUserAction(domain.ActionFollow))
		protected.Post("/api/unfollow", s.handleUserAction(domain.ActionUnfollow))
		protected.Post("/api/like", s.handleMediaAction(domain.ActionLike))
		protected.Post("/api/unlike", s.handleMediaAction(domain.ActionUnlike))
		protected.Post("/api/save", s.handleMediaAction(domain.ActionSave))
		protected.Post("/api/unsave", s.handleMediaAction(domain.ActionUnsave))
		protected.Post("/api/comment", s.handleComment)

		protected.Get("/api/logs", s.handleLogStream)
		protected.Get("/api/logs/recent", s.handleRecentLogs)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"ready":  s.fleet.Ready(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username != s.cfg.AdminUsername || req.Password != s.cfg.AdminPassword {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := s.signAdminToken(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create admin token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"type":       "Bearer",
	})
}

// handleInit kicks off the fleet login sequence. Logins take minutes on a
// large fleet, so the call returns immediately and progress flows through
// the log stream.
func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	go func() {
		if _, _, err := s.fleet.LoginFleet(context.Background()); err != nil {
			s.logs.Emit("SYSTEM", string(domain.ActionLogin), domain.SeverityError,
				fmt.Sprintf("login sequence not started: %v", err))
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted": true,
		"message":  "fleet login started, follow /api/logs for progress",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ready":    s.fleet.Ready(),
		"accounts": s.fleet.Status(),
	})
}

func (s *Server) handleUserAction(action domain.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Username) == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}
		s.dispatch(w, action, func(ctx context.Context) {
			switch action {
			case domain.ActionFollow:
				s.fleet.Follow(ctx, req.Username)
			case domain.ActionUnfollow:
				s.fleet.Unfollow(ctx, req.Username)
			}
		})
	}
}

func (s *Server) handleMediaAction(action domain.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}
		s.dispatch(w, action, func(ctx context.Context) {
			switch action {
			case domain.ActionLike:
				s.fleet.Like(ctx, req.URL)
			case domain.ActionUnlike:
				s.fleet.Unlike(ctx, req.URL)
			case domain.ActionSave:
				s.fleet.Save(ctx, req.URL)
			case domain.ActionUnsave:
				s.fleet.Unsave(ctx, req.URL)
			}
		})
	}
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL     string `json:"url"`
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if strings.TrimSpace(req.Comment) == "" {
		writeError(w, http.StatusBadRequest, "comment is required")
		return
	}
	s.dispatch(w, domain.ActionComment, func(ctx context.Context) {
		s.fleet.Comment(ctx, req.URL, req.Comment)
	})
}

// dispatch runs one fleet action in the background and acknowledges the
// request. A fleet of paced sessions takes far longer than any sane HTTP
// timeout; the outcome is observed on /api/logs.
func (s *Server) dispatch(w http.ResponseWriter, action domain.Action, run func(ctx context.Context)) {
	if !s.fleet.Ready() {
		writeError(w, http.StatusConflict, "fleet is not ready, run /api/init first")
		return
	}
	requestID := uuid.NewString()
	go run(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted":   true,
		"action":     action,
		"request_id": requestID,
	})
}

func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	entries, cancel := s.logs.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, open := <-entries:
			if !open {
				return
			}
			payload, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func (s *Server) handleRecentLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	entries := s.logs.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) signAdminToken(subject string) (string, time.Time, error) {
	expiresAt := time.Now().UTC().Add(12 * time.Hour)
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": expiresAt.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid admin claims")
			return
		}
		sub, _ := claims["sub"].(string)
		ctx := context.WithValue(r.Context(), contextKeyAdminSubject, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func decodeJSON(r *http.Request, target interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
