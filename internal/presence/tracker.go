package presence

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/roverworks/choreod/internal/infrastructure/mqtt"
)

// Bus is the interface the tracker needs from the MQTT client.
type Bus interface {
	// Subscribe registers a handler for messages on the given topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger is the interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// announcement is the payload consumers publish to their presence topic.
type announcement struct {
	ClientID string   `json:"client_id"`
	Status   string   `json:"status"`
	Channels []string `json:"channels"`
}

// Tracker maintains a live view of connected command consumers.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Presence updates arrive
//     on paho handler goroutines while the tick loop reads counts.
type Tracker struct {
	mu sync.RWMutex

	// consumers maps client ID (from the topic) to the channels that
	// consumer announced. Only online consumers are present.
	consumers map[string][]string

	logger Logger
}

// NewTracker creates an empty presence tracker.
//
// Parameters:
//   - logger: Logger for diagnostics (nil for none)
func NewTracker(logger Logger) *Tracker {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Tracker{
		consumers: make(map[string][]string),
		logger:    logger,
	}
}

// Start subscribes the tracker to the presence topics.
//
// Retained announcements from already-connected consumers are delivered
// immediately on subscribe, so the tracker converges without waiting for
// consumers to re-announce.
//
// Parameters:
//   - bus: MQTT client to subscribe with
//   - qos: QoS level for the presence subscription
//
// Returns:
//   - error: If the subscription fails
func (t *Tracker) Start(bus Bus, qos byte) error {
	if err := bus.Subscribe(mqtt.Topics{}.AllPresence(), qos, t.handleMessage); err != nil {
		return fmt.Errorf("subscribing to presence topics: %w", err)
	}
	return nil
}

// handleMessage processes one presence announcement.
//
// The consumer identity comes from the topic, not the payload, so a
// buggy consumer cannot impersonate another by mis-filling client_id.
func (t *Tracker) handleMessage(topic string, payload []byte) error {
	clientID := topic[strings.LastIndex(topic, "/")+1:]
	if clientID == "" {
		return fmt.Errorf("presence: topic %q has no client id", topic)
	}

	// Empty retained payload clears the consumer (broker-side delete).
	if len(payload) == 0 {
		t.remove(clientID)
		return nil
	}

	var ann announcement
	if err := json.Unmarshal(payload, &ann); err != nil {
		return fmt.Errorf("presence: parsing announcement from %q: %w", clientID, err)
	}

	if ann.Status != "online" {
		t.remove(clientID)
		return nil
	}

	t.mu.Lock()
	t.consumers[clientID] = ann.Channels
	t.mu.Unlock()

	t.logger.Debug("consumer online",
		"client_id", clientID,
		"channels", ann.Channels,
	)
	return nil
}

// remove drops a consumer from the tracker.
func (t *Tracker) remove(clientID string) {
	t.mu.Lock()
	_, known := t.consumers[clientID]
	delete(t.consumers, clientID)
	t.mu.Unlock()

	if known {
		t.logger.Debug("consumer offline", "client_id", clientID)
	}
}

// Subscribers returns the number of online consumers that announced an
// interest in the given channel.
//
// Parameters:
//   - channel: channel name, e.g. mqtt.ChannelVelocity
func (t *Tracker) Subscribers(channel string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, channels := range t.consumers {
		for _, ch := range channels {
			if ch == channel {
				count++
				break
			}
		}
	}
	return count
}

// ConsumerCount returns the total number of online consumers.
func (t *Tracker) ConsumerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.consumers)
}
