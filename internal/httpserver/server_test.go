package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/go-hints/internal/activity"
	"github.com/robalobadob/wordle/apps/go-hints/internal/store"
	"github.com/robalobadob/wordle/apps/go-hints/internal/words"
)

var sample = []string{"crane", "trace", "grape", "plane", "place"}

func newTestServer(t *testing.T, withActivity bool) *Server {
	t.Helper()
	ws := words.New(sample, 5)
	opts := Options{
		Store:      store.NewMemoryStore(ws),
		Words:      ws,
		SigningKey: SigningKey("test-secret"),
	}
	if withActivity {
		a, err := activity.Open(context.Background(), filepath.Join(t.TempDir(), "hints.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = a.Close() })
		opts.Activity = a
	}
	return New(opts)
}

func call(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, s *Server) createRes {
	t.Helper()
	rec := call(t, s, http.MethodPost, "/session", "", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res createRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateRes {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res stateRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, false)

	rec := call(t, s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = call(t, s, http.MethodGet, "/debug/words", "", "")
	assert.JSONEq(t, `{"words":5,"length":5,"sessions":0}`, rec.Body.String())

	rec = call(t, s, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_CreateSession(t *testing.T) {
	s := newTestServer(t, false)

	rec := call(t, s, http.MethodPost, "/session", "", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var res createRes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.ID)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 5, res.Length)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Equal(t, res.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestServer_RequiresSession(t *testing.T) {
	s := newTestServer(t, false)

	rec := call(t, s, http.MethodGet, "/session/matches", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, s, http.MethodGet, "/session/matches", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with another key.
	other := &tokenIssuer{key: SigningKey("other"), ttl: time.Hour}
	tok, _, err := other.sign(createSession(t, s).ID)
	require.NoError(t, err)
	rec = call(t, s, http.MethodGet, "/session/matches", tok, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_CookieAuth(t *testing.T) {
	s := newTestServer(t, false)
	sess := createSession(t, s)

	req := httptest.NewRequest(http.MethodGet, "/session/matches", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	res := decodeState(t, rec)
	assert.Equal(t, sample, res.Words)
}

func TestServer_LetterScenario(t *testing.T) {
	s := newTestServer(t, false)
	tok := createSession(t, s).Token

	res := decodeState(t, call(t, s, http.MethodPost, "/session/letters/include", tok, `{"letters":"c, R"}`))
	assert.Equal(t, []string{"crane", "trace"}, res.Words)
	require.NotNil(t, res.Count)
	assert.Equal(t, 2, *res.Count)
	assert.Equal(t, "cr", res.Snapshot.Included)

	res = decodeState(t, call(t, s, http.MethodPost, "/session/letters/exclude", tok, `{"letters":"t"}`))
	assert.Equal(t, []string{"crane"}, res.Words)
	assert.Equal(t, "t", res.Snapshot.Excluded)

	res = decodeState(t, call(t, s, http.MethodDelete, "/session/letters/exclude/t", tok, ""))
	assert.Equal(t, []string{"crane", "trace"}, res.Words)

	res = decodeState(t, call(t, s, http.MethodPost, "/session/letters/include?replace=true", tok, `{"letters":"g"}`))
	assert.Equal(t, []string{"grape"}, res.Words)
	assert.Equal(t, "g", res.Snapshot.Included)

	res = decodeState(t, call(t, s, http.MethodDelete, "/session/letters/include", tok, ""))
	assert.Equal(t, sample, res.Words)
	assert.Empty(t, res.Snapshot.Included)
}

func TestServer_PositionScenario(t *testing.T) {
	s := newTestServer(t, false)
	tok := createSession(t, s).Token

	decodeState(t, call(t, s, http.MethodPut, "/session/positions/1", tok, `{"letter":"p"}`))
	res := decodeState(t, call(t, s, http.MethodPut, "/session/positions/5", tok, `{"letter":"e"}`))
	assert.Equal(t, "p...e", res.Snapshot.Pattern)
	assert.Equal(t, []string{"plane", "place"}, res.Words)

	rec := call(t, s, http.MethodPut, "/session/positions/6", tok, `{"letter":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = call(t, s, http.MethodPut, "/session/positions/0", tok, `{"letter":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = call(t, s, http.MethodPut, "/session/positions/one", tok, `{"letter":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	res = decodeState(t, call(t, s, http.MethodGet, "/session", tok, ""))
	assert.Equal(t, "p...e", res.Snapshot.Pattern)
	assert.Nil(t, res.Count)

	res = decodeState(t, call(t, s, http.MethodDelete, "/session/positions/1", tok, ""))
	assert.Equal(t, "....e", res.Snapshot.Pattern)
	assert.Equal(t, sample, res.Words)

	res = decodeState(t, call(t, s, http.MethodPut, "/session/pattern", tok, `{"pattern":"gr..."}`))
	assert.Equal(t, []string{"grape"}, res.Words)

	rec = call(t, s, http.MethodPut, "/session/pattern", tok, `{"pattern":"gr"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_BadInput(t *testing.T) {
	s := newTestServer(t, false)
	tok := createSession(t, s).Token

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/session/letters/include", `{"letters":"c1"}`},
		{http.MethodPost, "/session/letters/maybe", `{"letters":"c"}`},
		{http.MethodPost, "/session/letters/include", `not json`},
		{http.MethodPut, "/session/positions/2", `{"letter":"ab"}`},
	} {
		rec := call(t, s, tc.method, tc.path, tok, tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s %s", tc.method, tc.path, tc.body)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	}

	res := decodeState(t, call(t, s, http.MethodGet, "/session", tok, ""))
	assert.Equal(t, "", res.Snapshot.Included)
	assert.Equal(t, ".....", res.Snapshot.Pattern)
}

func TestServer_ResetAndDelete(t *testing.T) {
	s := newTestServer(t, false)
	tok := createSession(t, s).Token

	decodeState(t, call(t, s, http.MethodPost, "/session/letters/include", tok, `{"letters":"z"}`))
	res := decodeState(t, call(t, s, http.MethodPost, "/session/reset", tok, ""))
	assert.Equal(t, "", res.Snapshot.Included)

	res = decodeState(t, call(t, s, http.MethodGet, "/session/matches", tok, ""))
	assert.Equal(t, sample, res.Words)

	rec := call(t, s, http.MethodDelete, "/session", tok, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, s, http.MethodGet, "/session", tok, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_SessionsAreIsolated(t *testing.T) {
	s := newTestServer(t, false)
	a := createSession(t, s).Token
	b := createSession(t, s).Token

	decodeState(t, call(t, s, http.MethodPost, "/session/letters/include", a, `{"letters":"g"}`))
	res := decodeState(t, call(t, s, http.MethodGet, "/session/matches", b, ""))
	assert.Equal(t, sample, res.Words)
}

func TestServer_ActivityLog(t *testing.T) {
	s := newTestServer(t, true)
	tok := createSession(t, s).Token

	decodeState(t, call(t, s, http.MethodPost, "/session/letters/include", tok, `{"letters":"c"}`))
	decodeState(t, call(t, s, http.MethodPost, "/session/letters/include", tok, `{"letters":"r"}`))
	decodeState(t, call(t, s, http.MethodGet, "/session/matches", tok, ""))

	rec := call(t, s, http.MethodGet, "/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Ops      []activity.OpCount `json:"ops"`
		Sessions int                `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, []activity.OpCount{{Op: "add", Count: 2}, {Op: "matches", Count: 1}}, stats.Ops)
	assert.Equal(t, 1, stats.Sessions)

	rec = call(t, s, http.MethodGet, "/session/history?limit=2", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist []activity.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist, 2)
	assert.Equal(t, "matches", hist[0].Op)
	assert.Equal(t, 2, hist[0].MatchCount)
	assert.Equal(t, "include r", hist[1].Detail)
}

func TestServer_StatsDisabled(t *testing.T) {
	s := newTestServer(t, false)
	rec := call(t, s, http.MethodGet, "/stats", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_WebSocket(t *testing.T) {
	s := newTestServer(t, false)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	tok := createSession(t, s).Token

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/session/ws"
	header := http.Header{"Authorization": {"Bearer " + tok}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	send := func(o op) map[string]json.RawMessage {
		t.Helper()
		require.NoError(t, conn.WriteJSON(o))
		var got map[string]json.RawMessage
		require.NoError(t, conn.ReadJSON(&got))
		return got
	}
	wordsOf := func(m map[string]json.RawMessage) []string {
		var w []string
		require.NoError(t, json.Unmarshal(m["words"], &w))
		return w
	}

	got := send(op{Op: "add", Kind: "include", Letters: "cr"})
	assert.Equal(t, []string{"crane", "trace"}, wordsOf(got))

	got = send(op{Op: "add", Kind: "exclude", Letters: "t"})
	assert.Equal(t, []string{"crane"}, wordsOf(got))

	got = send(op{Op: "set", Pos: 9, Letter: "x"})
	assert.Contains(t, string(got["error"]), "position out of range")

	got = send(op{Op: "bogus"})
	assert.Contains(t, string(got["error"]), "unknown op")

	send(op{Op: "reset"})
	got = send(op{Op: "set", Pos: 1, Letter: "p"})
	assert.Equal(t, []string{"plane", "place"}, wordsOf(got))

	// REST sees the same session state.
	res := decodeState(t, call(t, s, http.MethodGet, "/session", tok, ""))
	assert.Equal(t, "p....", res.Snapshot.Pattern)
}

func TestServer_WebSocketRequiresSession(t *testing.T) {
	s := newTestServer(t, false)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/session/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSigningKey(t *testing.T) {
	assert.Len(t, SigningKey("a"), 32)
	assert.Equal(t, SigningKey("a"), SigningKey("a"))
	assert.NotEqual(t, SigningKey("a"), SigningKey("b"))
}
