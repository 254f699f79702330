package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/roverworks/choreod/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
// Tests require a running Mosquitto broker at 127.0.0.1:1883.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "choreod-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect(t *testing.T) {
	if testing.Short() {
		t.Skip("requires local MQTT broker")
	}

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
}

func TestHealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("requires local MQTT broker")
	}

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

// =============================================================================
// Publish / Subscribe Tests
// =============================================================================

func TestPublishSubscribe_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("requires local MQTT broker")
	}

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := Topics{}.Cmd("test_roundtrip")

	var mu sync.Mutex
	var received []byte
	done := make(chan struct{})

	err = client.Subscribe(topic, 1, func(_ string, payload []byte) error {
		mu.Lock()
		received = payload
		mu.Unlock()
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := []byte(`{"linear":0.2,"angular":0}`)
	if err := client.Publish(topic, want, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	mu.Lock()
	defer mu.Unlock()
	if string(received) != string(want) {
		t.Errorf("received %s, want %s", received, want)
	}
}

// =============================================================================
// Validation Tests (no broker required)
// =============================================================================

func TestPublish_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Publish("", []byte("x"), 1, false); err != ErrInvalidTopic {
		t.Errorf("empty topic: error = %v, want ErrInvalidTopic", err)
	}

	if err := c.Publish("rover/cmd/cmd_vel", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("bad qos: error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); err != ErrInvalidTopic {
		t.Errorf("empty topic: error = %v, want ErrInvalidTopic", err)
	}

	if err := c.Subscribe("rover/presence/+", 1, nil); err == nil {
		t.Error("nil handler: expected error, got nil")
	}
}
