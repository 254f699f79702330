package performer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roverworks/choreod/internal/choreo"
	"github.com/roverworks/choreod/internal/infrastructure/mqtt"
)

// Publisher is the interface the performer needs for outbound commands.
type Publisher interface {
	// Publish sends a message to the specified MQTT topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// SubscriberCounter reports how many online consumers a channel has.
// Implemented by presence.Tracker.
type SubscriberCounter interface {
	Subscribers(channel string) int
}

// Recorder persists performance history. All methods must be cheap;
// implementations are expected to buffer and write asynchronously.
type Recorder interface {
	// RecordStart registers a new performance and returns its ID.
	RecordStart(startedAt time.Time, scriptName string) (string, error)

	// RecordAction logs one emitted action.
	RecordAction(performanceID string, at time.Time, action choreo.Action) error

	// RecordFinish marks the performance finished.
	RecordFinish(performanceID string, at time.Time) error
}

// Telemetry receives command telemetry. Implemented by telemetry.Client;
// writes must be non-blocking.
type Telemetry interface {
	// WriteActionEvent records that an action of the given kind fired.
	WriteActionEvent(kind string)

	// WriteCommandState records the latched output after a fold.
	WriteCommandState(linear, angular float64, lightOverride bool)
}

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config contains the performer's tuning knobs, taken from
// config.PerformanceConfig at startup.
type Config struct {
	// QoS for outbound command publishes.
	QoS byte

	// WaitLogInterval is the debounce window for "waiting for
	// consumers" log messages.
	WaitLogInterval time.Duration

	// MinVelocitySubscribers / MinLightRingSubscribers are the
	// per-channel readiness thresholds. A threshold of 0 means the
	// channel never blocks the gate.
	MinVelocitySubscribers  int
	MinLightRingSubscribers int
}

// Performer folds sequencer output into latched commands and republishes
// them on every tick.
//
// Thread Safety:
//   - NOT safe for concurrent use. One goroutine owns the performer and
//     calls Tick; see the package documentation.
type Performer struct {
	cfg        Config
	seq        *choreo.Sequencer
	scriptName string

	publisher Publisher
	counter   SubscriberCounter
	recorder  Recorder
	telemetry Telemetry
	logger    Logger

	// Latched output state. Defaults are neutral until the script says
	// otherwise; only Move/SetLights/Finished actions replace them.
	lastVelocity  VelocityCommand
	lastLightRing LightRingCommand

	// Readiness gate state.
	ready       bool
	lastWaitLog time.Time

	// performanceID is the history ID of the running performance, empty
	// when no recorder is attached or the start failed to record.
	performanceID string
}

// New creates a Performer for one script.
//
// Parameters:
//   - script: the validated choreography to play
//   - scriptName: authored name, for logs and history
//   - cfg: performer tuning from config.yaml
//   - publisher: outbound command bus (MQTT client)
//   - counter: presence counts for the readiness gate
func New(script *choreo.Script, scriptName string, cfg Config, publisher Publisher, counter SubscriberCounter) *Performer {
	return &Performer{
		cfg:           cfg,
		seq:           choreo.NewSequencer(script),
		scriptName:    scriptName,
		publisher:     publisher,
		counter:       counter,
		logger:        noopLogger{},
		lastVelocity:  NeutralVelocity(),
		lastLightRing: NeutralLightRing(),
	}
}

// SetLogger attaches a logger. If not set, the performer is silent.
func (p *Performer) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// SetRecorder attaches a history recorder (optional).
func (p *Performer) SetRecorder(recorder Recorder) {
	p.recorder = recorder
}

// SetTelemetry attaches a telemetry sink (optional).
func (p *Performer) SetTelemetry(telemetry Telemetry) {
	p.telemetry = telemetry
}

// Ready reports whether the readiness gate has passed and the
// performance is running.
func (p *Performer) Ready() bool {
	return p.ready
}

// Tick runs one iteration of the latch loop at the given time.
//
// Before the readiness gate passes nothing is published. Afterwards the
// two latched commands go out on every tick, whether or not any scripted
// action fired. Tick never returns an error: every failure mode inside a
// tick is logged and survived, because the next tick's republish
// self-heals transient drops.
func (p *Performer) Tick(now time.Time) {
	if !p.ready {
		if !p.gateSatisfied(now) {
			return
		}
		p.start(now)
	}

	actions, err := p.seq.Advance(now)
	if err != nil {
		// Clock regression: skip advancement for this tick, keep the
		// cursor and latches as they are. Anything else is a bug but
		// must not kill the loop.
		p.logger.Warn("sequencer advance failed, latched output unchanged",
			"error", err,
		)
	}

	for _, action := range actions {
		p.apply(action, now)
	}

	p.publishLatches(now)
}

// gateSatisfied checks consumer presence against the thresholds and
// handles the debounced waiting log.
func (p *Performer) gateSatisfied(now time.Time) bool {
	velocity := p.counter.Subscribers(mqtt.ChannelVelocity)
	lightRing := p.counter.Subscribers(mqtt.ChannelLightRing)

	if velocity >= p.cfg.MinVelocitySubscribers && lightRing >= p.cfg.MinLightRingSubscribers {
		return true
	}

	if p.lastWaitLog.IsZero() || now.Sub(p.lastWaitLog) >= p.cfg.WaitLogInterval {
		p.lastWaitLog = now
		p.logger.Info("waiting for command consumers",
			"velocity_subscribers", velocity,
			"velocity_required", p.cfg.MinVelocitySubscribers,
			"lightring_subscribers", lightRing,
			"lightring_required", p.cfg.MinLightRingSubscribers,
		)
	}
	return false
}

// start transitions the gate and begins the performance.
func (p *Performer) start(now time.Time) {
	p.ready = true
	p.seq.Start(now)

	p.logger.Info("consumers connected, starting performance",
		"script", p.scriptName,
		"time", now,
	)

	if p.recorder != nil {
		id, err := p.recorder.RecordStart(now, p.scriptName)
		if err != nil {
			p.logger.Error("failed to record performance start", "error", err)
		} else {
			p.performanceID = id
		}
	}

	p.publishEvent("performance_started", now)
}

// apply folds one action into the latched output state.
func (p *Performer) apply(action choreo.Action, now time.Time) {
	switch a := action.(type) {
	case choreo.Move:
		p.lastVelocity = VelocityCommand{Linear: a.Linear, Angular: a.Angular}
		p.logger.Info("move action",
			"linear_m_s", a.Linear,
			"angular_rad_s", a.Angular,
		)
		if p.telemetry != nil {
			p.telemetry.WriteActionEvent("move")
		}

	case choreo.SetLights:
		p.lastLightRing = LightRingCommand{Override: true, Colors: a.Colors}
		first := a.Colors[0]
		p.logger.Info("lights action",
			"first_segment", fmt.Sprintf("(%d,%d,%d)", first.R, first.G, first.B),
		)
		if p.telemetry != nil {
			p.telemetry.WriteActionEvent("lights")
		}

	case choreo.Finished:
		p.lastVelocity = NeutralVelocity()
		p.lastLightRing = NeutralLightRing()
		p.logger.Info("performance finished", "script", p.scriptName)
		if p.telemetry != nil {
			p.telemetry.WriteActionEvent("finished")
		}
		if p.recorder != nil && p.performanceID != "" {
			if err := p.recorder.RecordFinish(p.performanceID, now); err != nil {
				p.logger.Error("failed to record performance finish", "error", err)
			}
		}
		p.publishEvent("performance_finished", now)
	}

	if p.recorder != nil && p.performanceID != "" {
		if err := p.recorder.RecordAction(p.performanceID, now, action); err != nil {
			p.logger.Error("failed to record action", "error", err)
		}
	}
	if p.telemetry != nil {
		p.telemetry.WriteCommandState(p.lastVelocity.Linear, p.lastVelocity.Angular, p.lastLightRing.Override)
	}
}

// publishLatches stamps and publishes both latched commands.
func (p *Performer) publishLatches(now time.Time) {
	p.lastLightRing.Stamp = now

	if payload, err := json.Marshal(p.lastVelocity); err != nil {
		p.logger.Error("failed to encode velocity command", "error", err)
	} else if err := p.publisher.Publish(mqtt.Topics{}.CmdVel(), payload, p.cfg.QoS, false); err != nil {
		p.logger.Warn("velocity publish failed, will retry next tick", "error", err)
	}

	if payload, err := json.Marshal(p.lastLightRing); err != nil {
		p.logger.Error("failed to encode light ring command", "error", err)
	} else if err := p.publisher.Publish(mqtt.Topics{}.CmdLightRing(), payload, p.cfg.QoS, false); err != nil {
		p.logger.Warn("light ring publish failed, will retry next tick", "error", err)
	}
}

// performanceEvent is the payload published on rover/event topics.
type performanceEvent struct {
	Script string    `json:"script"`
	Time   time.Time `json:"time"`
}

// publishEvent announces a performance lifecycle event. Failures are
// logged and ignored; events are informational.
func (p *Performer) publishEvent(eventType string, now time.Time) {
	payload, err := json.Marshal(performanceEvent{Script: p.scriptName, Time: now})
	if err != nil {
		p.logger.Error("failed to encode event", "event", eventType, "error", err)
		return
	}
	if err := p.publisher.Publish(mqtt.Topics{}.Event(eventType), payload, p.cfg.QoS, false); err != nil {
		p.logger.Warn("event publish failed", "event", eventType, "error", err)
	}
}
