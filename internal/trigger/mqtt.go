package trigger

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"stairlight/internal/resilience"
	types "stairlight/pkg"
)

// message is the wire payload. State is a pointer so payloads lacking the
// key entirely (heartbeat/status traffic) can be told apart and ignored.
type message struct {
	State     *string `json:"state"`
	Media     string  `json:"media"`
	Animation string  `json:"animation"`
}

// Handler receives decoded trigger messages in arrival order on the MQTT
// client's callback goroutine.
type Handler func(state State, media string)

// MQTTSource subscribes to the playback control topic and forwards decoded
// triggers to the handler. Reconnection is automatic with capped backoff.
type MQTTSource struct {
	cfg       types.MQTTConfig
	handler   Handler
	resilient *resilience.Handler
	logger    *zap.Logger

	client mqtt.Client

	mu          sync.Mutex
	connected   bool
	lastMessage time.Time
}

func NewMQTTSource(cfg types.MQTTConfig, handler Handler, resilient *resilience.Handler, logger *zap.Logger) *MQTTSource {
	return &MQTTSource{
		cfg:       cfg,
		handler:   handler,
		resilient: resilient,
		logger:    logger,
	}
}

// Connect dials the broker and subscribes to the control topic. A failed
// initial connection is reported as a connectivity error; the client keeps
// retrying in the background either way.
func (s *MQTTSource) Connect() error {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", s.cfg.Broker, s.cfg.Port)).
		SetClientID(s.cfg.ClientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30 * time.Second).
		SetConnectRetry(true).
		SetConnectRetryInterval(1 * time.Second).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost)

	s.client = mqtt.NewClient(opts)

	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		err := fmt.Errorf("mqtt connect timeout after 10s")
		s.reportConnectFailure(err)
		return err
	}
	if err := token.Error(); err != nil {
		s.reportConnectFailure(err)
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (s *MQTTSource) reportConnectFailure(err error) {
	s.resilient.Report(resilience.ComponentConnectivity, resilience.ErrConnectionFailed,
		resilience.SeverityMedium, "MQTT connection failed",
		map[string]any{"broker": s.cfg.Broker, "port": s.cfg.Port, "error": err.Error()})
}

func (s *MQTTSource) onConnect(client mqtt.Client) {
	s.mu.Lock()
	s.connected = true
	s.lastMessage = time.Now()
	s.mu.Unlock()

	s.logger.Info("MQTT connected, subscribing",
		zap.String("broker", s.cfg.Broker), zap.String("topic", s.cfg.Topic))

	token := client.Subscribe(s.cfg.Topic, 0, s.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.logger.Error("MQTT subscribe failed", zap.String("topic", s.cfg.Topic), zap.Error(err))
		s.reportConnectFailure(err)
	}
}

func (s *MQTTSource) onConnectionLost(_ mqtt.Client, err error) {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()

	s.logger.Warn("MQTT connection lost", zap.Error(err))
	s.resilient.Report(resilience.ComponentConnectivity, resilience.ErrConnectionFailed,
		resilience.SeverityMedium, "MQTT connection lost",
		map[string]any{"error": err.Error()})
}

func (s *MQTTSource) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var m message
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		s.logger.Error("Invalid JSON in MQTT message", zap.Error(err))
		return
	}

	// Payloads without a state field are heartbeat or status traffic.
	if m.State == nil {
		s.logger.Debug("Ignoring MQTT payload without state field")
		return
	}

	media := m.Media
	if media == "" {
		media = m.Animation
	}
	state := NormalizeState(*m.State, s.logger)

	s.mu.Lock()
	s.lastMessage = time.Now()
	s.mu.Unlock()

	s.logger.Info("Trigger received",
		zap.String("state", string(state)), zap.String("media", media))

	if s.handler != nil {
		s.handler(state, media)
	}
}

// PublishStatus publishes a status document to <topic>/status.
func (s *MQTTSource) PublishStatus(status any) error {
	if s.client == nil || !s.client.IsConnected() {
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	token := s.client.Publish(s.cfg.Topic+"/status", 0, false, payload)
	token.Wait()
	return token.Error()
}

// Status describes the connection for the status API.
type Status struct {
	Connected      bool    `json:"connected"`
	Broker         string  `json:"broker"`
	Topic          string  `json:"topic"`
	LastMessageAge float64 `json:"last_message_age_seconds"`
}

func (s *MQTTSource) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	age := 0.0
	if !s.lastMessage.IsZero() {
		age = time.Since(s.lastMessage).Seconds()
	}
	return Status{
		Connected:      s.connected,
		Broker:         fmt.Sprintf("%s:%d", s.cfg.Broker, s.cfg.Port),
		Topic:          s.cfg.Topic,
		LastMessageAge: age,
	}
}

// Disconnect closes the broker connection.
func (s *MQTTSource) Disconnect() {
	if s.client != nil && s.client.IsConnected() {
		s.logger.Info("Disconnecting from MQTT broker")
		s.client.Disconnect(250)
	}
}
