package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roverworks/choreod/internal/choreo"
)

// recorderQueueSize is the number of pending writes the recorder buffers
// before it starts dropping records.
const recorderQueueSize = 256

// writeTimeout bounds each background database write.
const writeTimeout = 5 * time.Second

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

// Recorder queues history writes to a background goroutine so the tick
// loop never waits on the disk. It implements the recording interface
// the performer expects.
//
// Thread Safety:
//   - All methods are safe for concurrent use. In practice only the
//     tick goroutine calls them.
type Recorder struct {
	repo   *Repository
	logger Logger

	queue chan func(ctx context.Context) error
	done  chan struct{}
	once  sync.Once
}

// NewRecorder creates a Recorder and starts its background writer.
//
// Parameters:
//   - repo: the repository writes go to
//   - logger: optional, nil for silent
func NewRecorder(repo *Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}

	r := &Recorder{
		repo:   repo,
		logger: logger,
		queue:  make(chan func(ctx context.Context) error, recorderQueueSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// run drains the write queue until Close.
func (r *Recorder) run() {
	defer close(r.done)
	for op := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := op(ctx); err != nil {
			r.logger.Error("history write failed", "error", err)
		}
		cancel()
	}
}

// enqueue hands an operation to the background writer, dropping it with
// a warning when the queue is full.
func (r *Recorder) enqueue(op func(ctx context.Context) error) {
	select {
	case r.queue <- op:
	default:
		r.logger.Warn("history queue full, dropping record")
	}
}

// RecordStart registers a new performance run and returns its ID.
//
// The ID is generated immediately; the database insert happens in the
// background. The returned error is always nil, kept in the signature
// for interface compatibility.
func (r *Recorder) RecordStart(startedAt time.Time, scriptName string) (string, error) {
	id := "perf-" + uuid.NewString()[:8]
	r.enqueue(func(ctx context.Context) error {
		return r.repo.CreatePerformance(ctx, &Performance{
			ID:         id,
			ScriptName: scriptName,
			StartedAt:  startedAt,
		})
	})
	return id, nil
}

// RecordAction logs one emitted action.
func (r *Recorder) RecordAction(performanceID string, at time.Time, action choreo.Action) error {
	kind, detail := describeAction(action)
	r.enqueue(func(ctx context.Context) error {
		return r.repo.AddAction(ctx, &ActionRecord{
			PerformanceID: performanceID,
			Kind:          kind,
			Detail:        detail,
			EmittedAt:     at,
		})
	})
	return nil
}

// RecordFinish marks the performance finished.
func (r *Recorder) RecordFinish(performanceID string, at time.Time) error {
	r.enqueue(func(ctx context.Context) error {
		return r.repo.FinishPerformance(ctx, performanceID, at)
	})
	return nil
}

// Close stops the background writer after draining queued records.
// Safe to call more than once.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.queue)
	})
	<-r.done
}
