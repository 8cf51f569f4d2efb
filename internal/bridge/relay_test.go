package bridge

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRelayRejectsWithoutAgent(t *testing.T) {
	relay := NewRelay(time.Second, zerolog.Nop())

	rr := httptest.NewRecorder()
	relay.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/devices", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	req.Header.Set(AgentHeader, "nobody")
	relay.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRelayRoundTripThroughAgent(t *testing.T) {
	local := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"path":"` + r.URL.RequestURI() + `","got":` + string(body) + `}`))
	}))
	defer local.Close()

	relay := NewRelay(2*time.Second, zerolog.Nop())
	public := httptest.NewServer(relay.Handler())
	defer public.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	agent := NewAgent(Config{
		PublicWS:   "ws" + strings.TrimPrefix(public.URL, "http") + "/agent",
		LocalURL:   local.URL,
		AgentID:    "gw-7",
		RetryDelay: 50 * time.Millisecond,
	}, zerolog.Nop())
	go agent.Start(ctx)

	require.Eventually(t, func() bool { return relay.Online("gw-7") }, 3*time.Second, 20*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, public.URL+"/api/devices?x=1", strings.NewReader(`{"device":{"deviceId":"a"}}`))
	require.NoError(t, err)
	req.Header.Set(AgentHeader, "gw-7")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"path":"/api/devices?x=1","got":{"device":{"deviceId":"a"}}}`, string(body))

	cancel()
	assert.Eventually(t, func() bool { return !relay.Online("gw-7") }, 3*time.Second, 20*time.Millisecond)
}
