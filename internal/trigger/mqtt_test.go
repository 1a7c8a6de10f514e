package trigger

import (
	"testing"

	"go.uber.org/zap"

	"stairlight/internal/resilience"
	types "stairlight/pkg"
)

type fakeMessage struct {
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return "stairlight/playback" }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type capturedTrigger struct {
	state State
	media string
}

func newTestSource(t *testing.T) (*MQTTSource, *[]capturedTrigger) {
	t.Helper()
	logger := zap.NewNop()
	var got []capturedTrigger
	s := NewMQTTSource(types.MQTTConfig{
		Broker: "localhost", Port: 1883,
		Topic: "stairlight/playback", ClientID: "test",
	}, func(state State, media string) {
		got = append(got, capturedTrigger{state, media})
	}, resilience.NewHandler(logger), logger)
	return s, &got
}

func TestOnMessageDecodesTrigger(t *testing.T) {
	s, got := newTestSource(t)

	s.onMessage(nil, fakeMessage{payload: []byte(`{"state": "active", "media": "burst"}`)})

	if len(*got) != 1 || (*got)[0].state != StateActive || (*got)[0].media != "burst" {
		t.Errorf("handler got %v", *got)
	}
}

func TestOnMessageAnimationAlias(t *testing.T) {
	s, got := newTestSource(t)

	s.onMessage(nil, fakeMessage{payload: []byte(`{"state": "active", "animation": "legacy"}`)})

	if len(*got) != 1 || (*got)[0].media != "legacy" {
		t.Errorf("handler got %v, want animation alias honored", *got)
	}
}

func TestOnMessageMediaWinsOverAnimation(t *testing.T) {
	s, got := newTestSource(t)

	s.onMessage(nil, fakeMessage{payload: []byte(`{"state": "active", "media": "new", "animation": "old"}`)})

	if len(*got) != 1 || (*got)[0].media != "new" {
		t.Errorf("handler got %v, want media field preferred", *got)
	}
}

func TestOnMessageIgnoresMissingState(t *testing.T) {
	s, got := newTestSource(t)

	s.onMessage(nil, fakeMessage{payload: []byte(`{"heartbeat": true}`)})
	s.onMessage(nil, fakeMessage{payload: []byte(`not json at all`)})

	if len(*got) != 0 {
		t.Errorf("handler got %v, want nothing for stateless or invalid payloads", *got)
	}
}

func TestOnMessageNormalizesUnknownState(t *testing.T) {
	s, got := newTestSource(t)

	s.onMessage(nil, fakeMessage{payload: []byte(`{"state": "party", "media": "x"}`)})

	if len(*got) != 1 || (*got)[0].state != StateAmbient {
		t.Errorf("handler got %v, want unknown state normalized to ambient", *got)
	}
}

func TestOnMessageUpdatesLastMessageTime(t *testing.T) {
	s, _ := newTestSource(t)

	if age := s.Status().LastMessageAge; age != 0 {
		t.Errorf("initial LastMessageAge = %v", age)
	}
	s.onMessage(nil, fakeMessage{payload: []byte(`{"state": "ambient"}`)})

	st := s.Status()
	if st.LastMessageAge > 5 {
		t.Errorf("LastMessageAge = %v, want recent", st.LastMessageAge)
	}
	if st.Broker != "localhost:1883" || st.Topic != "stairlight/playback" {
		t.Errorf("Status = %+v", st)
	}
}
