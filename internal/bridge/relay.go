package bridge

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// AgentHeader selects the gateway a public request is meant for.
const AgentHeader = "X-Server-ID"

type agentConn struct {
	id string
	ws *websocket.Conn
	mu sync.Mutex
}

func (a *agentConn) send(msg requestMsg) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ws.WriteJSON(msg)
}

// Relay is the public side of remote access. Agents connect on /agent
// and every other request is forwarded to the agent named in AgentHeader.
type Relay struct {
	router   *gin.Engine
	upgrader websocket.Upgrader
	timeout  time.Duration
	logger   zerolog.Logger

	agentsMu sync.Mutex
	agents   map[string]*agentConn

	pendingMu sync.Mutex
	pending   map[string]chan responseMsg
}

func NewRelay(timeout time.Duration, logger zerolog.Logger) *Relay {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	r := &Relay{
		router:   gin.New(),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		timeout:  timeout,
		logger:   logger,
		agents:   make(map[string]*agentConn),
		pending:  make(map[string]chan responseMsg),
	}
	r.router.Use(gin.Recovery())
	r.router.GET("/agent", r.handleAgent)
	r.router.NoRoute(r.handleClient)
	return r
}

func (r *Relay) Handler() http.Handler {
	return r.router
}

// Online reports whether an agent with id is connected.
func (r *Relay) Online(id string) bool {
	r.agentsMu.Lock()
	defer r.agentsMu.Unlock()
	_, ok := r.agents[id]
	return ok
}

func (r *Relay) handleAgent(c *gin.Context) {
	ws, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	var agent *agentConn
	defer func() {
		if agent == nil {
			return
		}
		r.agentsMu.Lock()
		if r.agents[agent.id] == agent {
			delete(r.agents, agent.id)
		}
		r.agentsMu.Unlock()
		r.logger.Info().Str("agent_id", agent.id).Msg("agent disconnected")
	}()

	for {
		var msg struct {
			Type   string          `json:"type"`
			ID     string          `json:"id"`
			ReqID  string          `json:"reqId"`
			Status int             `json:"status"`
			Body   json.RawMessage `json:"body"`
		}
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "register":
			if agent != nil || msg.ID == "" {
				continue
			}
			agent = &agentConn{id: msg.ID, ws: ws}
			r.agentsMu.Lock()
			r.agents[msg.ID] = agent
			r.agentsMu.Unlock()
			r.logger.Info().Str("agent_id", msg.ID).Msg("agent registered")

		case "response":
			r.pendingMu.Lock()
			ch, ok := r.pending[msg.ReqID]
			delete(r.pending, msg.ReqID)
			r.pendingMu.Unlock()
			if ok {
				ch <- responseMsg{Type: msg.Type, ReqID: msg.ReqID, Status: msg.Status, Body: msg.Body}
			}
		}
	}
}

func (r *Relay) handleClient(c *gin.Context) {
	id := c.GetHeader(AgentHeader)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing " + AgentHeader})
		return
	}

	r.agentsMu.Lock()
	agent, ok := r.agents[id]
	r.agentsMu.Unlock()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Agent offline"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable body"})
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must be JSON"})
		return
	}

	reqID := uuid.NewString()
	// Buffered so a late response never blocks the agent reader.
	respCh := make(chan responseMsg, 1)
	r.pendingMu.Lock()
	r.pending[reqID] = respCh
	r.pendingMu.Unlock()
	defer func() {
		r.pendingMu.Lock()
		delete(r.pending, reqID)
		r.pendingMu.Unlock()
	}()

	msg := requestMsg{Type: "request", ReqID: reqID, Method: c.Request.Method, Path: c.Request.URL.RequestURI()}
	if len(body) > 0 {
		msg.Body = body
	}
	if err := agent.send(msg); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Agent unreachable"})
		return
	}

	select {
	case resp := <-respCh:
		if len(resp.Body) == 0 {
			c.Status(resp.Status)
			return
		}
		c.Data(resp.Status, "application/json; charset=utf-8", resp.Body)
	case <-time.After(r.timeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Timeout"})
	case <-c.Request.Context().Done():
	}
}
