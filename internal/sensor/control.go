package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/arlen/sensorctl/internal/logger"
)

const defaultStopTimeout = 5 * time.Second

// StopHook runs during Stop before the collector is shut down. Hooks let the
// composition root tear down dependents, such as an active stream, without
// the control service importing them.
type StopHook func() error

// ControlService owns the lifecycle state of one sensor family. All state
// transitions go through it; collaborators read state via CurrentState and
// never mutate it.
type ControlService struct {
	sensorType  string
	defaults    Config
	limits      Limits
	collector   *Collector
	stopHooks   []StopHook
	stopTimeout time.Duration

	mu    sync.Mutex
	cfg   Config
	state State
}

type ControlOption func(*ControlService)

// WithStopHook appends a hook invoked on every Stop and Reset.
func WithStopHook(h StopHook) ControlOption {
	return func(s *ControlService) { s.stopHooks = append(s.stopHooks, h) }
}

// WithStopTimeout bounds how long Stop waits for the generation loop.
func WithStopTimeout(d time.Duration) ControlOption {
	return func(s *ControlService) { s.stopTimeout = d }
}

func NewControlService(sensorType string, defaults Config, limits Limits, collector *Collector, opts ...ControlOption) *ControlService {
	s := &ControlService{
		sensorType:  sensorType,
		defaults:    defaults,
		limits:      limits,
		collector:   collector,
		stopTimeout: defaultStopTimeout,
		cfg:         defaults,
		state:       State{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ControlService) SensorType() string { return s.sensorType }

// Start activates the sensor, optionally applying a configuration patch
// first. Starting an active sensor is idempotent and the patch is ignored.
// On failure the sensor ends up inactive with Status error.
func (s *ControlService) Start(patch *Patch) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Active {
		logger.Debug().
			Str("sensor", s.sensorType).
			Msg("start ignored, sensor already active")
		return s.state
	}

	if patch != nil && !patch.IsZero() {
		merged, err := s.cfg.Apply(*patch, s.limits)
		if err != nil {
			s.failLocked("start rejected, invalid configuration", err)
			return s.state
		}
		s.cfg = merged
	}

	if err := s.collector.Start(s.cfg); err != nil {
		s.failLocked("start failed", err)
		return s.state
	}

	s.state.Active = true
	s.state.Status = StatusOperational
	s.state.LastStarted = time.Now()
	s.state.ErrorCount = 0

	return s.state
}

// Stop deactivates the sensor. The second return value reports whether the
// stop took effect. When a stop hook or the collector fails, Active is left
// unchanged: the sensor still reports active while its loop may already be
// winding down, and the caller is expected to retry.
func (s *ControlService) Stop() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *ControlService) stopLocked() (State, bool) {
	if !s.state.Active {
		logger.Debug().
			Str("sensor", s.sensorType).
			Msg("stop ignored, sensor not active")
		return s.state, false
	}

	for _, hook := range s.stopHooks {
		if err := hook(); err != nil {
			s.failStopLocked("stop hook failed", err)
			return s.state, false
		}
	}

	entries := s.collector.Entries()

	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()
	if err := s.collector.Stop(ctx); err != nil {
		s.failStopLocked("collector stop failed", err)
		return s.state, false
	}

	s.state.Active = false
	s.state.Status = StatusIdle
	s.state.LastStopped = time.Now()
	s.state.TotalSamples += int64(entries)

	return s.state, true
}

// Reset stops the sensor when active and restores defaults and zeroed
// counters.
func (s *ControlService) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Active {
		if _, ok := s.stopLocked(); !ok {
			logger.Warn().
				Str("sensor", s.sensorType).
				Msg("reset proceeding despite stop failure")
		}
	}

	s.cfg = s.defaults
	s.state = State{Status: StatusIdle}

	logger.Info().
		Str("sensor", s.sensorType).
		Msg("sensor reset to defaults")

	return s.state
}

// ApplyConfig merges a validated patch into the configuration. When the
// sensor is active the running collector picks up the new configuration on
// its next tick.
func (s *ControlService) ApplyConfig(patch Patch) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := s.cfg.Apply(patch, s.limits)
	if err != nil {
		return s.cfg, err
	}

	s.cfg = merged
	if s.state.Active {
		s.collector.UpdateConfig(merged)
	}

	logger.Info().
		Str("sensor", s.sensorType).
		Float64("rate_hz", merged.RateHz).
		Str("resolution", merged.Resolution.String()).
		Msg("configuration updated")

	return merged, nil
}

// Config returns the current configuration.
func (s *ControlService) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// CurrentState returns the lifecycle state. While active, TotalSamples
// includes the entries of the running session.
func (s *ControlService) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	if state.Active {
		state.TotalSamples += int64(s.collector.Entries())
	}
	return state
}

// StatusSummary renders a short human-readable status line.
func (s *ControlService) StatusSummary() string {
	state := s.CurrentState()

	activity := "inactive"
	if state.Active {
		activity = "active"
	}
	return fmt.Sprintf("%s: %s (%s), samples=%d, errors=%d",
		s.sensorType, activity, state.Status, state.TotalSamples, state.ErrorCount)
}

func (s *ControlService) failLocked(msg string, err error) {
	logger.Error().
		Str("sensor", s.sensorType).
		Err(err).
		Msg(msg)
	s.state.Active = false
	s.state.Status = StatusError
	s.state.ErrorCount++
}

// failStopLocked records a stop failure without touching Active.
func (s *ControlService) failStopLocked(msg string, err error) {
	logger.Error().
		Str("sensor", s.sensorType).
		Err(err).
		Msg(msg)
	s.state.Status = StatusError
	s.state.ErrorCount++
}
