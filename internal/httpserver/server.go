// internal/httpserver/server.go
//
// HTTP server wiring for the word hint backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/debug/words", "/stats".
//   - Session endpoints: POST /session creates one; everything else under
//     /session requires the session token (see session.go).
//   - Live session channel: GET /session/ws (see ws.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Each session owns one constraint engine; requests for the same session
//     are serialized by store.Session.Do.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-hints/internal/activity"
	"github.com/robalobadob/wordle/apps/go-hints/internal/store"
	"github.com/robalobadob/wordle/apps/go-hints/internal/words"
)

// Options configures a Server.
type Options struct {
	Store        store.Store
	Words        *words.Store
	Activity     *activity.Store // nil disables /stats and activity logging
	SigningKey   []byte
	TokenTTL     time.Duration
	ClientOrigin string
	Production   bool // secure cookies
}

// Server bundles router, session registry and optional activity log.
type Server struct {
	r        *chi.Mux
	store    store.Store
	words    *words.Store
	activity *activity.Store
	tokens   *tokenIssuer
	opts     Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	s := &Server{
		r:        chi.NewRouter(),
		store:    opts.Store,
		words:    opts.Words,
		activity: opts.Activity,
		tokens:   &tokenIssuer{key: opts.SigningKey, ttl: opts.TokenTTL},
		opts:     opts,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)            // add X-Request-ID
	s.r.Use(chimw.RealIP)               // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                  // one zerolog line per request
	s.r.Use(chimw.Recoverer)            // recover from panics
	s.r.Use(corsFor(opts.ClientOrigin)) // credentials-friendly CORS

	// WebSocket upgrade stays outside the JSON/timeout group.
	s.r.With(s.requireSession).Get("/session/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"go-hints","endpoints":["/health","POST /session","/session/*","/stats"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]int{
				"words":    s.words.Len(),
				"length":   s.words.Length(),
				"sessions": s.store.Len(),
			})
		})
		r.Get("/stats", s.handleStats)

		s.mountSession(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
		})
	})

	return s
}

// Handler exposes the router (used by main for http.Server and by tests).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Str("reqId", chimw.GetReqID(r.Context())).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeOpError maps engine/input errors to 400 and everything else to 500.
func writeOpError(w http.ResponseWriter, err error) {
	switch {
	case isBadInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	default:
		log.Error().Err(err).Msg("session op")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

// pathInt parses a chi URL parameter as an int.
func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, name)))
	return n, err == nil
}

// ------------------------------- stats -------------------------------------

// handleStats returns activity counts per operation.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeError(w, http.StatusNotFound, "activity log disabled")
		return
	}
	counts, err := s.activity.Counts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("activity counts")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ops": counts, "sessions": s.store.Len()})
}
