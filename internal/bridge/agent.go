// Package bridge relays management API calls arriving over a public
// websocket relay to the local management listener.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Config struct {
	PublicWS   string // ws://relay:port/agent
	LocalURL   string // http://127.0.0.1:9090
	AgentID    string
	RetryDelay time.Duration
}

type registerMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type requestMsg struct {
	Type   string          `json:"type"`
	ReqID  string          `json:"reqId"`
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Body   json.RawMessage `json:"body,omitempty"`
}

type responseMsg struct {
	Type   string          `json:"type"`
	ReqID  string          `json:"reqId"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Agent keeps one relay connection open and reconnects after failures.
type Agent struct {
	cfg    Config
	client *http.Client
	dialer *websocket.Dialer
	logger zerolog.Logger
}

func NewAgent(cfg Config, logger zerolog.Logger) *Agent {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Agent{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

// Start runs until ctx is cancelled.
func (a *Agent) Start(ctx context.Context) {
	for {
		if err := a.run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Warn().Err(err).Msg("relay connection lost, reconnecting")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(a.cfg.RetryDelay):
		}
	}
}

func (a *Agent) run(ctx context.Context) error {
	ws, _, err := a.dialer.DialContext(ctx, a.cfg.PublicWS, nil)
	if err != nil {
		return fmt.Errorf("dialing relay: %w", err)
	}
	defer ws.Close()

	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()

	if err := ws.WriteJSON(registerMsg{Type: "register", ID: a.cfg.AgentID}); err != nil {
		return fmt.Errorf("registering agent: %w", err)
	}
	a.logger.Info().Str("relay", a.cfg.PublicWS).Msg("registered with relay")

	for {
		var req requestMsg
		if err := ws.ReadJSON(&req); err != nil {
			return err
		}
		if req.Type != "request" {
			continue
		}

		status, body := a.forward(ctx, req)
		if err := ws.WriteJSON(responseMsg{Type: "response", ReqID: req.ReqID, Status: status, Body: body}); err != nil {
			return err
		}
	}
}

// localPath reports whether p can only address the local listener.
func localPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == "" && u.User == nil
}

// forward replays req against the local listener.
func (a *Agent) forward(ctx context.Context, req requestMsg) (int, json.RawMessage) {
	if !localPath(req.Path) {
		a.logger.Warn().Str("path", req.Path).Msg("rejected relayed path")
		return http.StatusBadRequest, errorBody("invalid path")
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, a.cfg.LocalURL+req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return http.StatusBadRequest, errorBody("invalid request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		a.logger.Warn().Err(err).Str("path", req.Path).Msg("local request failed")
		return http.StatusBadGateway, errorBody("local request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil || !json.Valid(raw) {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, raw
}

func errorBody(msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"message": msg})
	return b
}
