// Package stream forwards the most recent sample of one sensor family to
// the platform bus on a fixed interval, recording each transmission in the
// local repository.
package stream

import (
	"context"
	"sync"
	"time"

	"codeberg.org/arlen/sensorctl/internal/errors"
	"codeberg.org/arlen/sensorctl/internal/logger"
	"codeberg.org/arlen/sensorctl/internal/metrics"
	"codeberg.org/arlen/sensorctl/internal/publish"
	"codeberg.org/arlen/sensorctl/internal/telemetry"
)

const (
	minInterval = 100 * time.Millisecond
	maxInterval = 60 * time.Second
)

// CurrentSampler exposes the latest generated sample. The collector
// satisfies it.
type CurrentSampler interface {
	CurrentSample() *telemetry.Sample
}

// Service streams a sensor family's current sample. Publish or save
// failures are logged and counted, never fatal to the loop.
type Service struct {
	sensorType string
	source     CurrentSampler
	publisher  publish.Publisher
	repo       telemetry.Repository
	metrics    *metrics.Set

	mu        sync.Mutex
	streaming bool
	interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
	count     int
	startTime time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Set) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(sensorType string, source CurrentSampler, publisher publish.Publisher, repo telemetry.Repository, opts ...Option) *Service {
	s := &Service{
		sensorType: sensorType,
		source:     source,
		publisher:  publisher,
		repo:       repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats summarize a finished streaming run.
type Stats struct {
	Transmissions int
	Elapsed       time.Duration
}

// Status is a point-in-time view of the service.
type Status struct {
	Streaming     bool
	Interval      time.Duration
	Transmissions int
	Elapsed       time.Duration
}

// Start begins streaming at the given interval.
func (s *Service) Start(interval time.Duration) error {
	errFactory := errors.New()

	if interval < minInterval || interval > maxInterval {
		return errFactory.WithData(ErrInvalidInterval, interval.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return errFactory.New(ErrAlreadyStreaming)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.streaming = true
	s.interval = interval
	s.cancel = cancel
	s.done = done
	s.count = 0
	s.startTime = time.Now()

	go s.run(ctx, done)

	logger.Info().
		Str("sensor", s.sensorType).
		Dur("interval", interval).
		Msg("telemetry streaming started")

	return nil
}

// Stop ends the streaming loop and reports the run statistics.
func (s *Service) Stop() (Stats, error) {
	errFactory := errors.New()

	s.mu.Lock()
	if !s.streaming {
		s.mu.Unlock()
		return Stats{}, errFactory.New(ErrNotStreaming)
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.streaming = false
	s.cancel = nil
	s.done = nil
	stats := Stats{
		Transmissions: s.count,
		Elapsed:       time.Since(s.startTime),
	}
	s.mu.Unlock()

	logger.Info().
		Str("sensor", s.sensorType).
		Int("transmissions", stats.Transmissions).
		Dur("elapsed", stats.Elapsed).
		Msg("telemetry streaming stopped")

	return stats, nil
}

// UpdateInterval changes the streaming cadence. The loop picks it up on its
// next tick.
func (s *Service) UpdateInterval(interval time.Duration) error {
	if interval < minInterval || interval > maxInterval {
		return errors.New().WithData(ErrInvalidInterval, interval.String())
	}

	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()

	return nil
}

func (s *Service) CurrentStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Streaming:     s.streaming,
		Interval:      s.interval,
		Transmissions: s.count,
	}
	if s.streaming {
		status.Elapsed = time.Since(s.startTime)
	}
	return status
}

func (s *Service) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		s.streamOnce(ctx)

		s.mu.Lock()
		interval := s.interval
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func (s *Service) streamOnce(ctx context.Context) {
	sample := s.source.CurrentSample()
	if sample == nil {
		logger.Debug().
			Str("sensor", s.sensorType).
			Msg("no sample available, transmission skipped")
		return
	}

	syncStatus := telemetry.SyncSent
	if err := s.publisher.Publish(ctx, s.sensorType, sample); err != nil {
		logger.Error().
			Str("sensor", s.sensorType).
			Err(err).
			Msg("telemetry publish failed")
		s.metrics.LoopError(s.sensorType)
		syncStatus = telemetry.SyncFailed
	} else {
		s.metrics.SamplePublished(s.sensorType)
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, s.sensorType, sample, syncStatus); err != nil {
			logger.Error().
				Str("sensor", s.sensorType).
				Err(err).
				Msg("telemetry save failed")
			s.metrics.LoopError(s.sensorType)
		}
	}

	s.mu.Lock()
	s.count++
	s.mu.Unlock()
}
