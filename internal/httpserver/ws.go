// internal/httpserver/ws.go
//
// Live session channel.
// A client sends one JSON op per message, e.g.
//
//	{"op":"add","kind":"include","letters":"c"}
//	{"op":"set","pos":1,"letter":"p"}
//	{"op":"matches"}
//
// and receives either a stateRes or {"error": "..."} for each one, in order.
// Ops on one connection are applied serially; other connections and REST
// calls for the same session are serialized by store.Session.Do.

package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsReadLimit  = 4096
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsWriteWait  = 10 * time.Second
)

type wsError struct {
	Error string `json:"error"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == s.opts.ClientOrigin
		},
	}
}

// handleWS upgrades the connection and serves ops until the client leaves.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		log.Warn().Err(err).Msg("ws upgrade")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	stopped := make(chan struct{})
	writes := make(chan any)
	go s.wsWriter(conn, writes, done, stopped)

	log.Debug().Str("session", sess.ID).Msg("ws connected")
	for {
		var o op
		if err := conn.ReadJSON(&o); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session", sess.ID).Msg("ws read")
			}
			return
		}

		var msg any
		res, err := s.run(r.Context(), sess, o)
		switch {
		case err == nil:
			msg = res
		case isBadInput(err):
			msg = wsError{Error: err.Error()}
		default:
			log.Error().Err(err).Str("session", sess.ID).Msg("ws op")
			msg = wsError{Error: "internal_error"}
		}

		select {
		case writes <- msg:
		case <-stopped:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// wsWriter owns all writes to conn: replies from handleWS plus keepalive pings.
// stopped is closed when it exits.
func (s *Server) wsWriter(conn *websocket.Conn, writes <-chan any, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		case msg := <-writes:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Msg("ws write")
				_ = conn.Close()
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
