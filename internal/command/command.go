// Package command maps platform command payloads onto one sensor family's
// services. Payloads arrive as loosely typed maps; the dispatcher tolerates
// malformed parameters and reports failures in the result instead of
// returning errors.
package command

import (
	"fmt"
	"time"

	"codeberg.org/arlen/sensorctl/internal/logger"
	"codeberg.org/arlen/sensorctl/internal/sensor"
	"codeberg.org/arlen/sensorctl/internal/stream"
)

// Result is the response shape returned to the platform for every command.
type Result struct {
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Control is the lifecycle surface a handler drives.
type Control interface {
	Start(patch *sensor.Patch) sensor.State
	Stop() (sensor.State, bool)
	Reset() sensor.State
	ApplyConfig(patch sensor.Patch) (sensor.Config, error)
	CurrentState() sensor.State
	Config() sensor.Config
}

// Streamer is the streaming surface a handler drives.
type Streamer interface {
	Start(interval time.Duration) error
	Stop() (stream.Stats, error)
	UpdateInterval(interval time.Duration) error
	CurrentStatus() stream.Status
}

// ThresholdUpdater is the optional proximity tuning surface. Only the
// ultrasonic family provides it.
type ThresholdUpdater interface {
	UpdateChannelThreshold(channel int, thresholdCm float64) error
	UpdateConfidenceThreshold(confidence float64) error
}

// Handler dispatches commands for one sensor family.
type Handler struct {
	sensorType string
	control    Control
	streamer   Streamer
	thresholds ThresholdUpdater
}

type Option func(*Handler)

// WithThresholdUpdater enables the update_threshold and update_confidence
// actions.
func WithThresholdUpdater(tu ThresholdUpdater) Option {
	return func(h *Handler) { h.thresholds = tu }
}

func NewHandler(sensorType string, control Control, streamer Streamer, opts ...Option) *Handler {
	h := &Handler{
		sensorType: sensorType,
		control:    control,
		streamer:   streamer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dispatch executes one command and returns its result. Unknown actions and
// malformed parameters fail the result, never the process.
func (h *Handler) Dispatch(action string, params map[string]any) Result {
	logger.Debug().
		Str("sensor", h.sensorType).
		Str("action", action).
		Msg("command received")

	switch action {
	case "start":
		return h.start(params)
	case "stop":
		return h.stop()
	case "reset":
		return h.reset()
	case "status":
		return h.status()
	case "configure":
		return h.configure(params)
	case "start_streaming":
		return h.startStreaming(params)
	case "stop_streaming":
		return h.stopStreaming()
	case "update_threshold":
		return h.updateThreshold(params)
	case "update_confidence":
		return h.updateConfidence(params)
	default:
		return failure(map[string]any{
			"message": fmt.Sprintf("unknown action: %s", action),
		})
	}
}

func (h *Handler) start(params map[string]any) Result {
	patch := patchFromParams(params)
	state := h.control.Start(patch)
	if !state.Active {
		return failure(map[string]any{
			"message": "sensor failed to start",
			"status":  string(state.Status),
		})
	}
	return success(stateData(state))
}

func (h *Handler) stop() Result {
	state, stopped := h.control.Stop()
	data := stateData(state)
	if !stopped {
		data["message"] = "sensor did not stop"
		return failure(data)
	}
	return success(data)
}

func (h *Handler) reset() Result {
	state := h.control.Reset()
	return success(stateData(state))
}

func (h *Handler) status() Result {
	state := h.control.CurrentState()
	cfg := h.control.Config()
	streaming := h.streamer.CurrentStatus()

	data := stateData(state)
	data["config"] = map[string]any{
		"rate_hz":     cfg.RateHz,
		"resolution":  cfg.Resolution.String(),
		"min_range_m": cfg.RangeMinM,
		"max_range_m": cfg.RangeMaxM,
	}
	data["streaming"] = map[string]any{
		"active":          streaming.Streaming,
		"interval_ms":     streaming.Interval.Milliseconds(),
		"transmissions":   streaming.Transmissions,
		"elapsed_seconds": int(streaming.Elapsed.Seconds()),
	}
	return success(data)
}

func (h *Handler) configure(params map[string]any) Result {
	patch := patchFromParams(params)
	if patch == nil || patch.IsZero() {
		return failure(map[string]any{"message": "no configurable parameters given"})
	}

	cfg, err := h.control.ApplyConfig(*patch)
	if err != nil {
		return failure(map[string]any{"message": err.Error()})
	}
	return success(map[string]any{
		"rate_hz":     cfg.RateHz,
		"resolution":  cfg.Resolution.String(),
		"min_range_m": cfg.RangeMinM,
		"max_range_m": cfg.RangeMaxM,
	})
}

func (h *Handler) startStreaming(params map[string]any) Result {
	interval := time.Second
	if v, ok := floatParam(params, "interval_seconds"); ok {
		interval = time.Duration(v * float64(time.Second))
	}

	if err := h.streamer.Start(interval); err != nil {
		return failure(map[string]any{"message": err.Error()})
	}
	return success(map[string]any{"interval_ms": interval.Milliseconds()})
}

func (h *Handler) stopStreaming() Result {
	stats, err := h.streamer.Stop()
	if err != nil {
		return failure(map[string]any{"message": err.Error()})
	}
	return success(map[string]any{
		"transmissions":   stats.Transmissions,
		"elapsed_seconds": int(stats.Elapsed.Seconds()),
	})
}

func (h *Handler) updateThreshold(params map[string]any) Result {
	if h.thresholds == nil {
		return failure(map[string]any{"message": "thresholds not supported for this sensor"})
	}

	channel, ok := intParam(params, "sensor_id")
	if !ok {
		return failure(map[string]any{"message": "missing or invalid sensor_id"})
	}
	threshold, ok := floatParam(params, "threshold_cm")
	if !ok {
		return failure(map[string]any{"message": "missing or invalid threshold_cm"})
	}

	if err := h.thresholds.UpdateChannelThreshold(channel, threshold); err != nil {
		return failure(map[string]any{"message": err.Error()})
	}
	return success(map[string]any{
		"sensor_id":    channel,
		"threshold_cm": threshold,
	})
}

func (h *Handler) updateConfidence(params map[string]any) Result {
	if h.thresholds == nil {
		return failure(map[string]any{"message": "thresholds not supported for this sensor"})
	}

	confidence, ok := floatParam(params, "confidence")
	if !ok {
		return failure(map[string]any{"message": "missing or invalid confidence"})
	}

	if err := h.thresholds.UpdateConfidenceThreshold(confidence); err != nil {
		return failure(map[string]any{"message": err.Error()})
	}
	return success(map[string]any{"confidence": confidence})
}

func stateData(state sensor.State) map[string]any {
	return map[string]any{
		"active":        state.Active,
		"status":        string(state.Status),
		"total_samples": state.TotalSamples,
		"error_count":   state.ErrorCount,
	}
}

func patchFromParams(params map[string]any) *sensor.Patch {
	if params == nil {
		return nil
	}

	var patch sensor.Patch
	if v, ok := floatParam(params, "rate_hz"); ok {
		patch.RateHz = &v
	}
	if v, ok := params["resolution"].(string); ok {
		res := sensor.Resolution(v)
		patch.Resolution = &res
	}
	if v, ok := floatParam(params, "min_range_m"); ok {
		patch.RangeMinM = &v
	}
	if v, ok := floatParam(params, "max_range_m"); ok {
		patch.RangeMaxM = &v
	}

	if patch.IsZero() {
		return nil
	}
	return &patch
}

// floatParam tolerates the numeric types a JSON decode or a native caller
// may produce.
func floatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func intParam(params map[string]any, key string) (int, bool) {
	v, ok := floatParam(params, key)
	if !ok {
		return 0, false
	}
	return int(v), true
}

func success(data map[string]any) Result {
	return Result{Success: true, Data: data, Timestamp: time.Now().UnixMilli()}
}

func failure(data map[string]any) Result {
	return Result{Success: false, Data: data, Timestamp: time.Now().UnixMilli()}
}
