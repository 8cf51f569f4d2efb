package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"sempgateway/internal/models"
	"sempgateway/internal/registry"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNotification(url string) models.Notification {
	return models.Notification{
		DeviceID: "F-1",
		HookURL:  url,
		Recommendation: models.Recommendation{
			DeviceID:         "F-1",
			On:               true,
			RecommendedPower: 900,
		},
	}
}

func TestHookDelivererPostsJSON(t *testing.T) {
	var got models.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := NewHookDeliverer(time.Second)
	require.NoError(t, h.Notify(context.Background(), sampleNotification(srv.URL)))
	assert.Equal(t, "F-1", got.DeviceID)
	assert.Equal(t, 900, got.Recommendation.RecommendedPower)
}

func TestHookDelivererRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHookDeliverer(time.Second).Deliver(context.Background(), sampleNotification(srv.URL))
	assert.ErrorContains(t, err, "502")
}

func TestHookDelivererSkipsWithoutHook(t *testing.T) {
	assert.NoError(t, NewHookDeliverer(time.Second).Notify(context.Background(), sampleNotification("")))
}

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return newFakeToken(p.err)
}

func TestMQTTNotifierPublishesRetained(t *testing.T) {
	pub := &fakePublisher{}
	n := NewMQTTNotifier(pub, "semp/")

	require.NoError(t, n.Notify(context.Background(), sampleNotification("")))
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	assert.Equal(t, "semp/devices/F-1/recommendation", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var rec models.Recommendation
	require.NoError(t, json.Unmarshal(msg.payload, &rec))
	assert.True(t, rec.On)
}

func TestMQTTNotifierPropagatesTokenError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	err := NewMQTTNotifier(pub, "semp").Notify(context.Background(), sampleNotification(""))
	assert.ErrorContains(t, err, "not connected")
}

func TestMultiJoinsErrors(t *testing.T) {
	var calls int
	ok := registry.NotifierFunc(func(context.Context, models.Notification) error {
		calls++
		return nil
	})
	bad := registry.NotifierFunc(func(context.Context, models.Notification) error {
		calls++
		return errors.New("boom")
	})

	err := Multi{bad, ok, Nop{}}.Notify(context.Background(), sampleNotification(""))
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 2, calls)

	assert.NoError(t, Multi{}.Notify(context.Background(), sampleNotification("")))
}
