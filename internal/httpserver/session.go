// internal/httpserver/session.go
//
// Session endpoints and session-token handling.
//
//   POST   /session                          → create a session, returns {id, token}
//   GET    /session                          → current constraints
//   DELETE /session                          → end the session
//   POST   /session/reset                    → clear every constraint
//   POST   /session/letters/{kind}           → add letters ({"letters":"c, r"}; ?replace=true clears first)
//   DELETE /session/letters/{kind}           → clear a letter set
//   DELETE /session/letters/{kind}/{letter}  → remove one letter
//   PUT    /session/positions/{pos}          → fix a position ({"letter":"p"})
//   DELETE /session/positions/{pos}          → unfix a position
//   PUT    /session/pattern                  → set all positions ({"pattern":"p...e"})
//   GET    /session/matches                  → {count, words}
//   GET    /session/history                  → recent activity (when the log is enabled)
//
// Tokens are HS256 JWTs whose subject is the session ID. They are accepted
// from "Authorization: Bearer <token>" or the session cookie.

package httpserver

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/hkdf"

	"github.com/robalobadob/wordle/apps/go-hints/internal/store"
)

const sessionCookieName = "hints_session"

// SigningKey derives the token signing key from a configured secret.
func SigningKey(secret string) []byte {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("go-hints session token"))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf can produce up to 255*32 bytes; 32 never fails.
		panic(err)
	}
	return key
}

// tokenIssuer signs and verifies session tokens.
type tokenIssuer struct {
	key []byte
	ttl time.Duration
}

func (t *tokenIssuer) sign(sessionID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := tok.SignedString(t.key)
	return ss, exp, err
}

// verify returns the session ID carried by a valid token.
func (t *tokenIssuer) verify(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// bearerOrCookie extracts a bearer token from Authorization header or session cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	// Browsers cannot set headers on WebSocket upgrades.
	return r.URL.Query().Get("token")
}

// ---------------------------- session middleware ---------------------------

// ctxSessionKey is the context key type for storing *store.Session.
type ctxSessionKey struct{}

// requireSession enforces a valid token and injects the session into the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearerOrCookie(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		id, err := s.tokens.verify(tokenStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		sess, err := s.store.Get(r.Context(), id)
		if err != nil {
			// Swept or deleted; the client should start a new session.
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentSession(r *http.Request) *store.Session {
	sess, _ := r.Context().Value(ctxSessionKey{}).(*store.Session)
	return sess
}

// ------------------------------- routes ------------------------------------

func (s *Server) mountSession(r chi.Router) {
	r.Post("/session", s.handleCreate)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/session", s.opHandler(func(*http.Request) (op, error) { return op{Op: "state"}, nil }))
		r.Delete("/session", s.handleDelete)
		r.Post("/session/reset", s.opHandler(func(*http.Request) (op, error) { return op{Op: "reset"}, nil }))
		r.Get("/session/matches", s.opHandler(func(*http.Request) (op, error) { return op{Op: "matches"}, nil }))

		r.Post("/session/letters/{kind}", s.opHandler(func(r *http.Request) (op, error) {
			var body struct {
				Letters string `json:"letters"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				return op{}, errBadJSON
			}
			replace, _ := strconv.ParseBool(r.URL.Query().Get("replace"))
			return op{Op: "add", Kind: chi.URLParam(r, "kind"), Letters: body.Letters, Replace: replace}, nil
		}))
		r.Delete("/session/letters/{kind}", s.opHandler(func(r *http.Request) (op, error) {
			return op{Op: "clear", Kind: chi.URLParam(r, "kind")}, nil
		}))
		r.Delete("/session/letters/{kind}/{letter}", s.opHandler(func(r *http.Request) (op, error) {
			return op{Op: "remove", Kind: chi.URLParam(r, "kind"), Letters: chi.URLParam(r, "letter")}, nil
		}))

		r.Put("/session/positions/{pos}", s.opHandler(func(r *http.Request) (op, error) {
			pos, ok := pathInt(r, "pos")
			if !ok {
				return op{}, errBadPosition
			}
			var body struct {
				Letter string `json:"letter"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				return op{}, errBadJSON
			}
			return op{Op: "set", Pos: pos, Letter: body.Letter}, nil
		}))
		r.Delete("/session/positions/{pos}", s.opHandler(func(r *http.Request) (op, error) {
			pos, ok := pathInt(r, "pos")
			if !ok {
				return op{}, errBadPosition
			}
			return op{Op: "unset", Pos: pos}, nil
		}))

		r.Put("/session/pattern", s.opHandler(func(r *http.Request) (op, error) {
			var body struct {
				Pattern string `json:"pattern"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				return op{}, errBadJSON
			}
			return op{Op: "pattern", Pattern: body.Pattern}, nil
		}))

		r.Get("/session/history", s.handleHistory)
	})
}

var (
	errBadJSON     = errors.New("bad_json")
	errBadPosition = errors.New("position must be an integer")
)

// opHandler adapts a request decoder into a handler that runs the decoded op.
func (s *Server) opHandler(decode func(*http.Request) (op, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := decode(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		res, err := s.run(r.Context(), currentSession(r), o)
		if err != nil {
			writeOpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// createRes is returned by POST /session.
type createRes struct {
	ID     string `json:"id"`
	Token  string `json:"token"`
	Length int    `json:"length"`
}

// handleCreate starts a new session, signs its token and sets the session cookie.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Create(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("create session")
		writeError(w, http.StatusInternalServerError, "create_failed")
		return
	}
	tok, exp, err := s.tokens.sign(sess.ID)
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setSessionCookie(w, tok, exp)
	log.Debug().Str("session", sess.ID).Msg("session created")

	writeJSON(w, http.StatusCreated, createRes{ID: sess.ID, Token: tok, Length: s.words.Length()})
}

// handleDelete ends the current session and clears the cookie.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := s.store.Delete(r.Context(), sess.ID); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("delete session")
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleHistory returns the session's recent activity.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeError(w, http.StatusNotFound, "activity log disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.activity.Recent(r.Context(), currentSession(r).ID, limit)
	if err != nil {
		log.Error().Err(err).Msg("activity recent")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ------------------------------ cookies ------------------------------------

// setSessionCookie writes the session token cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, s.cookie(token, exp, 0))
}

// clearSessionCookie deletes the session token cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", time.Time{}, -1))
}

func (s *Server) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.opts.Production {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Production,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}
