// Package mqtt connects the gateway to the broker that receives
// recommendation messages.
package mqtt

import (
	"fmt"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const connectTimeout = 10 * time.Second

// NewClientOptions builds the options used by NewClient.
func NewClientOptions(broker, clientID string, logger zerolog.Logger) *MQTT.ClientOptions {
	return MQTT.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ MQTT.Client, err error) {
			logger.Warn().Err(err).Str("broker", broker).Msg("mqtt connection lost")
		}).
		SetOnConnectHandler(func(MQTT.Client) {
			logger.Info().Str("broker", broker).Msg("mqtt connected")
		})
}

// NewClient connects to broker and returns the client.
func NewClient(broker, clientID string, logger zerolog.Logger) (MQTT.Client, error) {
	c := MQTT.NewClient(NewClientOptions(broker, clientID, logger))
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		c.Disconnect(0)
		return nil, fmt.Errorf("connecting to mqtt broker %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to mqtt broker %s: %w", broker, err)
	}
	return c, nil
}
