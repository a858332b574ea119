package escalate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// DefaultMQTTTopic is used when no topic is configured
const DefaultMQTTTopic = "medalert/emergency"

// mqttTimeout bounds connect and publish round trips
const mqttTimeout = 5 * time.Second

// MQTTConfig configures the MQTT action layer
type MQTTConfig struct {
	Broker   string // e.g. tcp://localhost:1883
	Topic    string
	ClientID string
	Username string
	Password string
}

// publisher is the subset of mqtt.Client used here
type publisher interface {
	IsConnected() bool
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes emergency contexts to a broker topic for a downstream
// dispatcher to act on
type MQTT struct {
	topic  string
	client publisher

	mu sync.Mutex // Serializes connect and publish
}

// NewMQTT creates an MQTT action layer. The connection is made lazily on
// the first trigger.
func NewMQTT(cfg MQTTConfig) *MQTT {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", cfg.Broker).Msg("MQTT connection lost")
	})

	return newMQTTWithClient(cfg.Topic, mqtt.NewClient(opts))
}

func newMQTTWithClient(topic string, client publisher) *MQTT {
	if topic == "" {
		topic = DefaultMQTTTopic
	}
	return &MQTT{topic: topic, client: client}
}

// Trigger publishes the context with QoS 1
func (m *MQTT) Trigger(ctx context.Context, ec EmergencyContext) (CallStatus, error) {
	if err := ctx.Err(); err != nil {
		return CallStatus{}, err
	}

	payload, err := json.Marshal(ec)
	if err != nil {
		return CallStatus{}, fmt.Errorf("marshal emergency context: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.client.IsConnected() {
		if err := wait(ctx, m.client.Connect()); err != nil {
			return CallStatus{}, fmt.Errorf("mqtt connect: %w", err)
		}
	}

	if err := wait(ctx, m.client.Publish(m.topic, 1, false, payload)); err != nil {
		return CallStatus{}, fmt.Errorf("mqtt publish: %w", err)
	}

	log.Debug().Str("topic", m.topic).Str("reason", ec.Reason).Msg("Published emergency context")
	return CallStatus{Status: StatusSuccess, Message: "Alert published to " + m.topic}, nil
}

// Close disconnects from the broker
func (m *MQTT) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client.IsConnected() {
		m.client.Disconnect(250)
	}
}

// Name returns "mqtt"
func (m *MQTT) Name() string {
	return "mqtt"
}

func wait(ctx context.Context, token mqtt.Token) error {
	timer := time.NewTimer(mqttTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", mqttTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
