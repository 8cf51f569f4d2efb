package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sempgateway/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the part of mqtt.Client used for notifications.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes every recommendation as a retained message.
type MQTTNotifier struct {
	client  Publisher
	prefix  string
	timeout time.Duration
}

func NewMQTTNotifier(client Publisher, prefix string) *MQTTNotifier {
	return &MQTTNotifier{client: client, prefix: strings.TrimSuffix(prefix, "/"), timeout: 5 * time.Second}
}

// Topic returns the recommendation topic of a device.
func (m *MQTTNotifier) Topic(deviceID string) string {
	return fmt.Sprintf("%s/devices/%s/recommendation", m.prefix, deviceID)
}

func (m *MQTTNotifier) Notify(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n.Recommendation)
	if err != nil {
		return fmt.Errorf("encoding recommendation: %w", err)
	}

	token := m.client.Publish(m.Topic(n.DeviceID), 1, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.timeout):
		return fmt.Errorf("publishing to %s: timeout", m.Topic(n.DeviceID))
	}
	return token.Error()
}
