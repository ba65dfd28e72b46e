package sensor

import (
	"context"
	"sync"
	"time"

	"codeberg.org/arlen/sensorctl/internal/errors"
	"codeberg.org/arlen/sensorctl/internal/logger"
	"codeberg.org/arlen/sensorctl/internal/metrics"
	"codeberg.org/arlen/sensorctl/internal/telemetry"
)

const errorRecoveryPause = time.Second

// Collector runs the generation loop of one sensor family. Each Start opens
// a fresh session with its own in-memory log and append-only session file;
// generated samples additionally feed the detection queue when one is
// attached.
type Collector struct {
	sensorType string
	gen        Generator
	dataDir    string
	queue      *Queue
	metrics    *metrics.Set

	mu         sync.RWMutex
	cfg        Config
	collecting bool
	cancel     context.CancelFunc
	done       chan struct{}
	current    *telemetry.Sample
	session    *telemetry.SessionLog
	writer     *telemetry.SessionWriter
}

type CollectorOption func(*Collector)

// WithQueue attaches the detection hand-off queue.
func WithQueue(q *Queue) CollectorOption {
	return func(c *Collector) { c.queue = q }
}

// WithMetrics attaches the instrumentation counters.
func WithMetrics(m *metrics.Set) CollectorOption {
	return func(c *Collector) { c.metrics = m }
}

func NewCollector(sensorType string, gen Generator, dataDir string, opts ...CollectorOption) *Collector {
	c := &Collector{
		sensorType: sensorType,
		gen:        gen,
		dataDir:    dataDir,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Summary is a point-in-time view of the running or last session.
type Summary struct {
	Collecting bool
	SessionID  string
	StartEpoch int64
	Elapsed    time.Duration
	Entries    int
	FilePath   string
	FileSizeKB float64
}

// Start begins a new session with the given configuration. Starting an
// already running collector is a logged no-op.
func (c *Collector) Start(cfg Config) error {
	errFactory := errors.New()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.collecting {
		logger.Warn().
			Str("sensor", c.sensorType).
			Msg("collector already running, start ignored")
		return nil
	}

	session := telemetry.NewSessionLog(c.sensorType, time.Now())
	writer, err := telemetry.NewSessionWriter(c.dataDir, c.sensorType, session.StartEpoch())
	if err != nil {
		return errFactory.Wrap(ErrSessionInit, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.cfg = cfg
	c.collecting = true
	c.cancel = cancel
	c.done = done
	c.current = nil
	c.session = session
	c.writer = writer

	go c.run(ctx, done)

	logger.Info().
		Str("sensor", c.sensorType).
		Str("session_id", session.ID().String()).
		Float64("rate_hz", cfg.RateHz).
		Msg("collection started")

	return nil
}

// Stop ends the running session, waiting for the loop goroutine to exit or
// for ctx to expire. On timeout the collector stays marked as collecting so
// a later Stop can retry the wait.
func (c *Collector) Stop(ctx context.Context) error {
	errFactory := errors.New()

	c.mu.Lock()
	if !c.collecting {
		c.mu.Unlock()
		return errFactory.New(ErrNotCollecting)
	}
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return errFactory.WithData(ErrStopTimeout, c.sensorType)
	}

	c.mu.Lock()
	writer := c.writer
	c.collecting = false
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Warn().
				Str("sensor", c.sensorType).
				Err(err).
				Msg("session file close failed")
		}
	}

	logger.Info().
		Str("sensor", c.sensorType).
		Msg("collection stopped")

	return nil
}

// UpdateConfig replaces the generation configuration. The loop picks it up
// on its next tick.
func (c *Collector) UpdateConfig(cfg Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

// Collecting reports whether a session is running.
func (c *Collector) Collecting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collecting
}

// CurrentSample returns the most recent generated sample, or nil before the
// first tick of a session.
func (c *Collector) CurrentSample() *telemetry.Sample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Entries reports how many samples the current or last session recorded.
func (c *Collector) Entries() int {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	if session == nil {
		return 0
	}
	return session.Len()
}

// Summarize returns the current session view.
func (c *Collector) Summarize() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Summary{Collecting: c.collecting}
	if c.session == nil {
		return s
	}

	s.SessionID = c.session.ID().String()
	s.StartEpoch = c.session.StartEpoch()
	s.Entries = c.session.Len()
	if c.collecting {
		s.Elapsed = time.Since(c.session.StartedAt())
	}
	if c.writer != nil {
		s.FilePath = c.writer.Path()
		s.FileSizeKB = float64(c.writer.Size()) / 1024.0
	}

	return s
}

func (c *Collector) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		c.mu.RLock()
		cfg := c.cfg
		session := c.session
		writer := c.writer
		c.mu.RUnlock()

		sample := c.gen.Generate(cfg, time.Now())

		c.mu.Lock()
		c.current = sample
		c.mu.Unlock()

		session.Append(sample)

		if err := writer.Write(sample); err != nil {
			logger.Error().
				Str("sensor", c.sensorType).
				Err(err).
				Msg("session file write failed")
			c.metrics.LoopError(c.sensorType)

			select {
			case <-ctx.Done():
				return
			case <-time.After(errorRecoveryPause):
			}
			continue
		}

		if c.queue != nil {
			if !c.queue.Enqueue(sample) {
				logger.Debug().
					Str("sensor", c.sensorType).
					Msg("detection queue full, sample dropped")
			}
		}

		c.metrics.SampleGenerated(c.sensorType)

		select {
		case <-ctx.Done():
			return
		case <-time.After(tickInterval(cfg.RateHz)):
		}
	}
}

// tickInterval converts the sampling rate into the loop sleep. A
// non-positive rate falls back to 10 Hz.
func tickInterval(rateHz float64) time.Duration {
	if rateHz <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(float64(time.Second) / rateHz)
}
