package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentRelaysRequests(t *testing.T) {
	local := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"method":"` + r.Method + `","path":"` + r.URL.Path + `","echo":` + string(body) + `}`))
	}))
	defer local.Close()

	registered := make(chan registerMsg, 1)
	responses := make(chan responseMsg, 1)
	upgrader := websocket.Upgrader{}
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		var reg registerMsg
		if ws.ReadJSON(&reg) != nil {
			return
		}
		select {
		case registered <- reg:
		default:
		}

		_ = ws.WriteJSON(requestMsg{Type: "ping"})
		_ = ws.WriteJSON(requestMsg{Type: "request", ReqID: "r-1", Method: http.MethodPost, Path: "/api/devices", Body: json.RawMessage(`{"a":1}`)})

		var resp responseMsg
		if ws.ReadJSON(&resp) != nil {
			return
		}
		responses <- resp
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer relay.Close()

	ctx, cancel := context.WithCancel(context.Background())
	agent := NewAgent(Config{
		PublicWS:   "ws" + strings.TrimPrefix(relay.URL, "http"),
		LocalURL:   local.URL,
		AgentID:    "gw-1",
		RetryDelay: 50 * time.Millisecond,
	}, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		agent.Start(ctx)
		close(done)
	}()

	select {
	case reg := <-registered:
		assert.Equal(t, "register", reg.Type)
		assert.Equal(t, "gw-1", reg.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("agent did not register")
	}

	select {
	case resp := <-responses:
		assert.Equal(t, "response", resp.Type)
		assert.Equal(t, "r-1", resp.ReqID)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.JSONEq(t, `{"method":"POST","path":"/api/devices","echo":{"a":1}}`, string(resp.Body))
	case <-time.After(3 * time.Second):
		t.Fatal("no response relayed")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("agent did not stop")
	}
}

func TestForwardLocalFailure(t *testing.T) {
	agent := NewAgent(Config{LocalURL: "http://127.0.0.1:1"}, zerolog.Nop())
	status, body := agent.forward(context.Background(), requestMsg{Method: http.MethodGet, Path: "/api/devices"})

	assert.Equal(t, http.StatusBadGateway, status)
	var msg map[string]string
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Equal(t, "local request failed", msg["message"])
}

func TestForwardRejectsForeignPaths(t *testing.T) {
	var hits atomic.Int32
	local := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer local.Close()

	agent := NewAgent(Config{LocalURL: local.URL}, zerolog.Nop())
	for _, p := range []string{"@evil.example/api", "//evil.example/api", "api/devices", "", "/\\evil.example"} {
		status, body := agent.forward(context.Background(), requestMsg{Method: http.MethodGet, Path: p})
		assert.Equal(t, http.StatusBadRequest, status, p)
		assert.JSONEq(t, `{"message":"invalid path"}`, string(body), p)
	}
	assert.Zero(t, hits.Load())

	status, _ := agent.forward(context.Background(), requestMsg{Method: http.MethodGet, Path: "/api/devices?x=1"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int32(1), hits.Load())
}
