package performer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/roverworks/choreod/internal/choreo"
)

// ─── Mock Dependencies ──────────────────────────────────────────────────────

// mockPublisher captures all published messages.
type mockPublisher struct {
	messages []published
	failAll  bool
}

type published struct {
	Topic   string
	Payload []byte
	QoS     byte
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, _ bool) error {
	if m.failAll {
		return errors.New("mqtt: publish failed")
	}
	// Copy: the performer may reuse buffers between ticks.
	p := make([]byte, len(payload))
	copy(p, payload)
	m.messages = append(m.messages, published{Topic: topic, Payload: p, QoS: qos})
	return nil
}

// onTopic returns all captured messages for one topic.
func (m *mockPublisher) onTopic(topic string) []published {
	var out []published
	for _, msg := range m.messages {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

// mockCounter returns fixed per-channel subscriber counts.
type mockCounter struct {
	counts map[string]int
}

func (m *mockCounter) Subscribers(channel string) int {
	return m.counts[channel]
}

// mockLogger records log messages for assertion.
type mockLogger struct {
	infos []string
	warns []string
}

func (m *mockLogger) Debug(string, ...any)          {}
func (m *mockLogger) Info(msg string, _ ...any)     { m.infos = append(m.infos, msg) }
func (m *mockLogger) Warn(msg string, _ ...any)     { m.warns = append(m.warns, msg) }
func (m *mockLogger) Error(msg string, _ ...any)    {}

func (m *mockLogger) countInfo(substr string) int {
	n := 0
	for _, msg := range m.infos {
		if strings.Contains(msg, substr) {
			n++
		}
	}
	return n
}

// mockRecorder captures history calls.
type mockRecorder struct {
	started  int
	actions  int
	finished int
}

func (m *mockRecorder) RecordStart(time.Time, string) (string, error) {
	m.started++
	return "perf-01", nil
}

func (m *mockRecorder) RecordAction(string, time.Time, choreo.Action) error {
	m.actions++
	return nil
}

func (m *mockRecorder) RecordFinish(string, time.Time) error {
	m.finished++
	return nil
}

// mockTelemetry captures telemetry calls.
type mockTelemetry struct {
	events []string
	states int
}

func (m *mockTelemetry) WriteActionEvent(kind string) { m.events = append(m.events, kind) }
func (m *mockTelemetry) WriteCommandState(float64, float64, bool) {
	m.states++
}

// ─── Helpers ────────────────────────────────────────────────────────────────

const (
	velTopic   = "rover/cmd/cmd_vel"
	lightTopic = "rover/cmd/cmd_lightring"
)

func exampleScript(t *testing.T) *choreo.Script {
	t.Helper()
	script, err := choreo.NewScript([]choreo.Step{
		{Offset: 0, Action: choreo.NewMove(0.2, 0)},
		{Offset: 1, Action: choreo.SolidLights(choreo.Red)},
		{Offset: 2, Action: choreo.Finished{}},
	})
	if err != nil {
		t.Fatalf("NewScript() error = %v", err)
	}
	return script
}

func testConfig() Config {
	return Config{
		QoS:                     1,
		WaitLogInterval:         5 * time.Second,
		MinVelocitySubscribers:  1,
		MinLightRingSubscribers: 0,
	}
}

// connected returns counts that satisfy the default gate.
func connected() *mockCounter {
	return &mockCounter{counts: map[string]int{
		"cmd_vel":       1,
		"cmd_lightring": 1,
	}}
}

func decodeVel(t *testing.T, payload []byte) VelocityCommand {
	t.Helper()
	var cmd VelocityCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		t.Fatalf("decoding velocity command: %v", err)
	}
	return cmd
}

func decodeLight(t *testing.T, payload []byte) LightRingCommand {
	t.Helper()
	var cmd LightRingCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		t.Fatalf("decoding light ring command: %v", err)
	}
	return cmd
}

// ─── Readiness Gate ─────────────────────────────────────────────────────────

func TestPerformer_PublishesNothingBeforeReady(t *testing.T) {
	pub := &mockPublisher{}
	counter := &mockCounter{counts: map[string]int{}}
	p := New(exampleScript(t), "test", testConfig(), pub, counter)

	start := time.Now()
	for i := 0; i < 10; i++ {
		p.Tick(start.Add(time.Duration(i) * 50 * time.Millisecond))
	}

	if len(pub.messages) != 0 {
		t.Errorf("published %d messages while not ready, want 0", len(pub.messages))
	}
	if p.Ready() {
		t.Error("Ready() = true without consumers")
	}
}

func TestPerformer_WaitLogDebounced(t *testing.T) {
	pub := &mockPublisher{}
	counter := &mockCounter{counts: map[string]int{}}
	log := &mockLogger{}

	p := New(exampleScript(t), "test", testConfig(), pub, counter)
	p.SetLogger(log)

	// Tick every 50ms for 12 seconds of fake time: the waiting notice
	// must appear at most once per 5 second window (here: t=0, t=5, t=10).
	start := time.Now()
	for i := 0; i <= 240; i++ {
		p.Tick(start.Add(time.Duration(i) * 50 * time.Millisecond))
	}

	if got := log.countInfo("waiting for command consumers"); got != 3 {
		t.Errorf("waiting log emitted %d times over 12s, want 3", got)
	}
}

func TestPerformer_StartsWhenConsumersConnect(t *testing.T) {
	pub := &mockPublisher{}
	log := &mockLogger{}

	p := New(exampleScript(t), "test", testConfig(), pub, connected())
	p.SetLogger(log)

	start := time.Now()
	p.Tick(start)

	if !p.Ready() {
		t.Fatal("Ready() = false with consumers connected")
	}
	if got := log.countInfo("starting performance"); got != 1 {
		t.Errorf("start log emitted %d times, want 1", got)
	}

	// Both latched commands go out on the first ready tick.
	if got := len(pub.onTopic(velTopic)); got != 1 {
		t.Errorf("velocity publishes = %d, want 1", got)
	}
	if got := len(pub.onTopic(lightTopic)); got != 1 {
		t.Errorf("light ring publishes = %d, want 1", got)
	}
}

func TestPerformer_LightRingThresholdZeroNeverBlocks(t *testing.T) {
	// The light ring threshold defaults to zero: a velocity consumer
	// alone opens the gate even with nobody on the light ring channel.
	pub := &mockPublisher{}
	counter := &mockCounter{counts: map[string]int{"cmd_vel": 1}}

	p := New(exampleScript(t), "test", testConfig(), pub, counter)
	p.Tick(time.Now())

	if !p.Ready() {
		t.Error("Ready() = false; light ring channel with threshold 0 must not block the gate")
	}
}

func TestPerformer_VelocityThresholdBlocks(t *testing.T) {
	pub := &mockPublisher{}
	counter := &mockCounter{counts: map[string]int{"cmd_lightring": 3}}

	p := New(exampleScript(t), "test", testConfig(), pub, counter)
	p.Tick(time.Now())

	if p.Ready() {
		t.Error("Ready() = true without a velocity consumer")
	}
}

// ─── Folding and Latching ───────────────────────────────────────────────────

func TestPerformer_ExamplePerformance(t *testing.T) {
	pub := &mockPublisher{}
	p := New(exampleScript(t), "test", testConfig(), pub, connected())

	start := time.Now()

	// t = start: the zero-offset move fires on the very first tick.
	p.Tick(start)
	vel := decodeVel(t, pub.onTopic(velTopic)[0].Payload)
	if vel.Linear != 0.2 || vel.Angular != 0 {
		t.Errorf("t=0: velocity = %+v, want {0.2 0}", vel)
	}
	light := decodeLight(t, pub.onTopic(lightTopic)[0].Payload)
	if light.Override {
		t.Error("t=0: light override = true before any lights action")
	}

	// t = start+1s: lights go red with override, velocity unchanged.
	p.Tick(start.Add(time.Second))
	vel = decodeVel(t, pub.onTopic(velTopic)[1].Payload)
	if vel.Linear != 0.2 {
		t.Errorf("t=1: velocity latch lost, linear = %g, want 0.2", vel.Linear)
	}
	light = decodeLight(t, pub.onTopic(lightTopic)[1].Payload)
	if !light.Override {
		t.Error("t=1: light override = false after lights action")
	}
	if light.Colors[0] != choreo.Red {
		t.Errorf("t=1: Colors[0] = %+v, want red", light.Colors[0])
	}

	// t = start+2s: Finished resets both latches to neutral.
	p.Tick(start.Add(2 * time.Second))
	vel = decodeVel(t, pub.onTopic(velTopic)[2].Payload)
	if vel.Linear != 0 || vel.Angular != 0 {
		t.Errorf("t=2: velocity = %+v, want neutral", vel)
	}
	light = decodeLight(t, pub.onTopic(lightTopic)[2].Payload)
	if light.Override {
		t.Error("t=2: light override = true after Finished")
	}

	// Long after the end the loop keeps publishing neutral commands.
	for i := 3; i < 10; i++ {
		p.Tick(start.Add(time.Duration(i) * time.Second))
	}
	last := pub.onTopic(velTopic)
	vel = decodeVel(t, last[len(last)-1].Payload)
	if vel.Linear != 0 || vel.Angular != 0 {
		t.Errorf("post-finish: velocity = %+v, want neutral forever", vel)
	}
}

func TestPerformer_LatchPersistsBetweenActions(t *testing.T) {
	pub := &mockPublisher{}
	p := New(exampleScript(t), "test", testConfig(), pub, connected())

	start := time.Now()
	p.Tick(start)
	// Two ticks in the gap between the move (0s) and the lights (1s):
	// nothing new fires, output must repeat.
	p.Tick(start.Add(100 * time.Millisecond))
	p.Tick(start.Add(200 * time.Millisecond))

	vels := pub.onTopic(velTopic)
	if len(vels) != 3 {
		t.Fatalf("velocity publishes = %d, want 3", len(vels))
	}
	// Velocity has no timestamp field: repeats are byte-identical.
	if string(vels[1].Payload) != string(vels[2].Payload) {
		t.Errorf("velocity repeats differ: %s vs %s", vels[1].Payload, vels[2].Payload)
	}

	lights := pub.onTopic(lightTopic)
	a := decodeLight(t, lights[1].Payload)
	b := decodeLight(t, lights[2].Payload)
	if a.Override != b.Override || a.Colors != b.Colors {
		t.Error("light ring repeats differ beyond the stamp")
	}
	if !b.Stamp.After(a.Stamp) {
		t.Errorf("light stamp not advancing: %v then %v", a.Stamp, b.Stamp)
	}
}

func TestPerformer_FinishedIsIdempotent(t *testing.T) {
	script, err := choreo.NewScript([]choreo.Step{
		{Offset: 0, Action: choreo.NewMove(0.3, 0)},
		{Offset: 1, Action: choreo.Finished{}},
		{Offset: 1, Action: choreo.Finished{}},
	})
	if err != nil {
		t.Fatalf("NewScript() error = %v", err)
	}

	pub := &mockPublisher{}
	p := New(script, "test", testConfig(), pub, connected())

	start := time.Now()
	p.Tick(start)
	p.Tick(start.Add(time.Second))

	msgs := pub.onTopic(velTopic)
	vel := decodeVel(t, msgs[len(msgs)-1].Payload)
	if vel.Linear != 0 {
		t.Errorf("velocity after double Finished = %+v, want neutral", vel)
	}
}

// ─── Failure Handling ───────────────────────────────────────────────────────

func TestPerformer_PublishFailureIsNonFatal(t *testing.T) {
	pub := &mockPublisher{failAll: true}
	log := &mockLogger{}

	p := New(exampleScript(t), "test", testConfig(), pub, connected())
	p.SetLogger(log)

	start := time.Now()
	p.Tick(start)

	if len(log.warns) == 0 {
		t.Error("expected publish failure warnings")
	}

	// The broker recovers: the next tick republishes the latched state.
	pub.failAll = false
	p.Tick(start.Add(50 * time.Millisecond))

	vels := pub.onTopic(velTopic)
	if len(vels) != 1 {
		t.Fatalf("velocity publishes after recovery = %d, want 1", len(vels))
	}
	vel := decodeVel(t, vels[0].Payload)
	if vel.Linear != 0.2 {
		t.Errorf("recovered velocity = %+v, want latched {0.2 0}", vel)
	}
}

func TestPerformer_ClockRegressionSkipsAdvancement(t *testing.T) {
	pub := &mockPublisher{}
	log := &mockLogger{}

	p := New(exampleScript(t), "test", testConfig(), pub, connected())
	p.SetLogger(log)

	start := time.Now()
	p.Tick(start)
	p.Tick(start.Add(1200 * time.Millisecond)) // consumes the 1s lights step

	// Time runs backwards: no action may fire or repeat, but the latch
	// is still republished.
	before := len(pub.onTopic(velTopic))
	p.Tick(start.Add(600 * time.Millisecond))

	if len(log.warns) == 0 {
		t.Error("expected a clock regression warning")
	}
	if got := len(pub.onTopic(velTopic)); got != before+1 {
		t.Errorf("velocity publishes = %d, want %d (latch still republished)", got, before+1)
	}

	// Recovery: the remaining Finished step fires exactly once.
	p.Tick(start.Add(2500 * time.Millisecond))
	msgs := pub.onTopic(velTopic)
	vel := decodeVel(t, msgs[len(msgs)-1].Payload)
	if vel.Linear != 0 {
		t.Errorf("velocity after recovery = %+v, want neutral (Finished consumed)", vel)
	}
}

// ─── History and Telemetry ──────────────────────────────────────────────────

func TestPerformer_RecordsHistoryAndTelemetry(t *testing.T) {
	pub := &mockPublisher{}
	rec := &mockRecorder{}
	tel := &mockTelemetry{}

	p := New(exampleScript(t), "test", testConfig(), pub, connected())
	p.SetRecorder(rec)
	p.SetTelemetry(tel)

	start := time.Now()
	p.Tick(start)
	p.Tick(start.Add(time.Second))
	p.Tick(start.Add(2 * time.Second))

	if rec.started != 1 {
		t.Errorf("RecordStart calls = %d, want 1", rec.started)
	}
	if rec.actions != 3 {
		t.Errorf("RecordAction calls = %d, want 3", rec.actions)
	}
	if rec.finished != 1 {
		t.Errorf("RecordFinish calls = %d, want 1", rec.finished)
	}

	want := []string{"move", "lights", "finished"}
	if len(tel.events) != len(want) {
		t.Fatalf("telemetry events = %v, want %v", tel.events, want)
	}
	for i, kind := range want {
		if tel.events[i] != kind {
			t.Errorf("telemetry event[%d] = %q, want %q", i, tel.events[i], kind)
		}
	}
}

func TestPerformer_PublishesLifecycleEvents(t *testing.T) {
	pub := &mockPublisher{}
	p := New(exampleScript(t), "test", testConfig(), pub, connected())

	start := time.Now()
	p.Tick(start)
	p.Tick(start.Add(2 * time.Second))

	if got := len(pub.onTopic("rover/event/performance_started")); got != 1 {
		t.Errorf("performance_started events = %d, want 1", got)
	}
	if got := len(pub.onTopic("rover/event/performance_finished")); got != 1 {
		t.Errorf("performance_finished events = %d, want 1", got)
	}
}
