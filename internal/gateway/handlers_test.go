package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconviewer/internal/viewer"
)

type testEnv struct {
	srv     *httptest.Server
	hub     *Hub
	session *viewer.Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

func newTestEnvWith(t *testing.T, obs Observer) *testEnv {
	t.Helper()
	s := viewer.NewSession(stubBackend{}, viewer.WithPageSize(200))
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(runDone)
	}()

	hub := NewHub(s, obs)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	RegisterRoutes(mux, hub, stubStats{}, time.Now())
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
		cancel()
		<-runDone
	})

	require.Eventually(t, func() bool {
		return s.Snapshot().Catalog.Loaded
	}, 2*time.Second, 5*time.Millisecond)
	return &testEnv{srv: srv, hub: hub, session: s}
}

func (e *testEnv) post(t *testing.T, path, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(e.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *testEnv) waitReport(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		v := e.session.Snapshot()
		return v.Report != nil && !v.Loading
	}, 2*time.Second, 5*time.Millisecond)
}

func TestGetView(t *testing.T) {
	e := newTestEnv(t)

	resp, err := http.Get(e.srv.URL + "/api/view")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var v viewDoc
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, []string{"20240105", "20240108"}, v.Catalog.Dates)
	assert.Nil(t, v.Report)
}

func TestSelectDateAndNavigate(t *testing.T) {
	e := newTestEnv(t)

	status, body := e.post(t, "/api/view/date", `{"date":"20240105"}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `"20240105"`, string(mustField(t, body, "page", "date")))

	e.waitReport(t)
	v := e.session.Snapshot()
	assert.Equal(t, 3, v.Report.TotalDiffs)
	assert.Len(t, v.Report.Rows, 2)

	status, _ = e.post(t, "/api/view/page", `{"page":2}`)
	require.Equal(t, http.StatusOK, status)
	e.waitReport(t)
	assert.Equal(t, 2, e.session.Snapshot().Page.Page)

	status, _ = e.post(t, "/api/view/row", `{"index":0}`)
	require.Equal(t, http.StatusOK, status)
	require.Eventually(t, func() bool {
		d := e.session.Snapshot().Detail
		return d != nil && d.CompareState == viewer.LoadReady && d.TickState == viewer.LoadReady
	}, 2*time.Second, 5*time.Millisecond)

	status, _ = e.post(t, "/api/view/ticks", `{"curr_end":480}`)
	require.Equal(t, http.StatusOK, status)
	status, _ = e.post(t, "/api/view/ticks/reset", "")
	require.Equal(t, http.StatusOK, status)

	status, _ = e.post(t, "/api/view/detail/close", "")
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, e.session.Snapshot().Detail)
}

func TestActionInputErrors(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"unknown date", "/api/view/date", `{"date":"19990101"}`},
		{"invalid json", "/api/view/date", `{"date":`},
		{"page before date", "/api/view/page", `{"page":2}`},
		{"missing row index", "/api/view/row", `{}`},
		{"ticks without row", "/api/view/ticks/reset", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := e.post(t, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, body, "error")
		})
	}
}

func TestActionRouteRejectsGet(t *testing.T) {
	e := newTestEnv(t)

	resp, err := http.Get(e.srv.URL + "/api/view/date")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	resp, err := http.Get(e.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Status    string                `json:"status"`
		WSClients int                   `json:"ws_clients"`
		Breaker   string                `json:"breaker"`
		Latency   map[string]LatencyOut `json:"backend_latency"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.WSClients)
	assert.Equal(t, "closed", body.Breaker)
	assert.Equal(t, LatencyOut{P50: 1, P95: 2, P99: 3}, body.Latency["diff"])
}

func dialWS(t *testing.T, e *testEnv) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one, or fails after 2s.
func readUntil(t *testing.T, conn *websocket.Conn, match func(typ string, raw []byte) bool) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var base struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(raw, &base), string(raw))
		if match(base.Type, raw) {
			return raw
		}
	}
}

func TestWebSocketViewPush(t *testing.T) {
	e := newTestEnv(t)
	conn := dialWS(t, e)

	first := readUntil(t, conn, func(typ string, _ []byte) bool { return typ == "view" })
	var env struct {
		View viewDoc `json:"view"`
	}
	require.NoError(t, json.Unmarshal(first, &env))
	assert.True(t, env.View.Catalog.Loaded)
	require.Eventually(t, func() bool { return e.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(ActionMsg{Type: ActionSelectDate, Date: "20240105", ReqID: "r1"}))
	ack := readUntil(t, conn, func(typ string, _ []byte) bool { return typ == "ack" || typ == "error" })
	assert.Contains(t, string(ack), `"req_id":"r1"`)
	assert.Contains(t, string(ack), `"type":"ack"`)

	readUntil(t, conn, func(typ string, raw []byte) bool {
		if typ != "view" {
			return false
		}
		var env struct {
			View viewDoc `json:"view"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		return env.View.Report != nil && env.View.Report.TotalDiffs == 3
	})
}

func TestWebSocketErrorsAndPing(t *testing.T) {
	e := newTestEnv(t)
	conn := dialWS(t, e)

	require.NoError(t, conn.WriteJSON(ActionMsg{Type: ActionGoToPage, Page: 9, ReqID: "r2"}))
	raw := readUntil(t, conn, func(typ string, _ []byte) bool { return typ == "error" })
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errResp))
	assert.Equal(t, "r2", errResp.ReqID)
	assert.NotEmpty(t, errResp.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"ping":123}`)))
	raw = readUntil(t, conn, func(typ string, _ []byte) bool { return typ == "pong" })
	var pong PongResponse
	require.NoError(t, json.Unmarshal(raw, &pong))
	assert.Equal(t, int64(123), pong.Ping)
	assert.NotZero(t, pong.ServerTS)
}

// chanObserver reports client counts on a channel.
type chanObserver struct{ counts chan int }

func (o chanObserver) ClientsConnected(n int) { o.counts <- n }
func (o chanObserver) ViewPushed()            {}

func TestWebSocketDisconnectUpdatesCount(t *testing.T) {
	obs := chanObserver{counts: make(chan int, 4)}
	e := newTestEnvWith(t, obs)

	next := func() int {
		select {
		case n := <-obs.counts:
			return n
		case <-time.After(2 * time.Second):
			t.Fatal("client count not reported")
			return -1
		}
	}

	conn := dialWS(t, e)
	assert.Equal(t, 1, next())
	conn.Close()
	assert.Equal(t, 0, next())
}

func mustField(t *testing.T, body map[string]json.RawMessage, obj, field string) json.RawMessage {
	t.Helper()
	var inner map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body[obj], &inner))
	return inner[field]
}
