package command_test

import (
	"testing"
	"time"

	"codeberg.org/arlen/sensorctl/internal/command"
	"codeberg.org/arlen/sensorctl/internal/errors"
	"codeberg.org/arlen/sensorctl/internal/sensor"
	"codeberg.org/arlen/sensorctl/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeControl scripts lifecycle responses and records applied patches.
type fakeControl struct {
	active       bool
	stopOK       bool
	appliedPatch *sensor.Patch
	applyErr     error
	cfg          sensor.Config
}

func (f *fakeControl) Start(patch *sensor.Patch) sensor.State {
	f.appliedPatch = patch
	f.active = true
	return sensor.State{Active: true, Status: sensor.StatusOperational}
}

func (f *fakeControl) Stop() (sensor.State, bool) {
	if !f.stopOK {
		return sensor.State{Active: f.active, Status: sensor.StatusError, ErrorCount: 1}, false
	}
	f.active = false
	return sensor.State{Status: sensor.StatusIdle}, true
}

func (f *fakeControl) Reset() sensor.State {
	f.active = false
	return sensor.State{Status: sensor.StatusIdle}
}

func (f *fakeControl) ApplyConfig(patch sensor.Patch) (sensor.Config, error) {
	if f.applyErr != nil {
		return f.cfg, f.applyErr
	}
	f.appliedPatch = &patch
	return f.cfg, nil
}

func (f *fakeControl) CurrentState() sensor.State {
	return sensor.State{Active: f.active, Status: sensor.StatusOperational, TotalSamples: 42}
}

func (f *fakeControl) Config() sensor.Config { return f.cfg }

// fakeStreamer records start/stop calls.
type fakeStreamer struct {
	started  bool
	interval time.Duration
	startErr error
}

func (f *fakeStreamer) Start(interval time.Duration) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	f.interval = interval
	return nil
}

func (f *fakeStreamer) Stop() (stream.Stats, error) {
	if !f.started {
		return stream.Stats{}, errors.New().New(stream.ErrNotStreaming)
	}
	f.started = false
	return stream.Stats{Transmissions: 7, Elapsed: 3 * time.Second}, nil
}

func (f *fakeStreamer) UpdateInterval(interval time.Duration) error {
	f.interval = interval
	return nil
}

func (f *fakeStreamer) CurrentStatus() stream.Status {
	return stream.Status{Streaming: f.started, Interval: f.interval}
}

// fakeThresholds records tuning calls.
type fakeThresholds struct {
	channel    int
	threshold  float64
	confidence float64
}

func (f *fakeThresholds) UpdateChannelThreshold(channel int, thresholdCm float64) error {
	if thresholdCm < 5 || thresholdCm > 200 {
		return errors.New().New(errors.ErrInvalidArgument)
	}
	f.channel = channel
	f.threshold = thresholdCm
	return nil
}

func (f *fakeThresholds) UpdateConfidenceThreshold(confidence float64) error {
	f.confidence = confidence
	return nil
}

func newTestHandler(opts ...command.Option) (*command.Handler, *fakeControl, *fakeStreamer) {
	control := &fakeControl{
		stopOK: true,
		cfg: sensor.Config{
			RateHz:     10.0,
			Resolution: sensor.ResolutionMedium,
			RangeMinM:  0.5,
			RangeMaxM:  30.0,
		},
	}
	streamer := &fakeStreamer{}
	return command.NewHandler("test", control, streamer, opts...), control, streamer
}

func TestDispatchStart(t *testing.T) {
	h, control, _ := newTestHandler()

	result := h.Dispatch("start", map[string]any{"rate_hz": 25.0})
	assert.True(t, result.Success)
	assert.NotZero(t, result.Timestamp)
	require.NotNil(t, control.appliedPatch)
	assert.Equal(t, 25.0, *control.appliedPatch.RateHz)
}

func TestDispatchStartWithoutParams(t *testing.T) {
	h, control, _ := newTestHandler()

	result := h.Dispatch("start", nil)
	assert.True(t, result.Success)
	assert.Nil(t, control.appliedPatch)
}

func TestDispatchStopSuccess(t *testing.T) {
	h, control, _ := newTestHandler()
	control.active = true

	result := h.Dispatch("stop", nil)
	assert.True(t, result.Success)
	assert.Equal(t, false, result.Data["active"])
}

func TestDispatchStopFailure(t *testing.T) {
	h, control, _ := newTestHandler()
	control.active = true
	control.stopOK = false

	result := h.Dispatch("stop", nil)
	assert.False(t, result.Success)
	assert.Equal(t, true, result.Data["active"], "failed stop reports the unchanged state")
}

func TestDispatchReset(t *testing.T) {
	h, control, _ := newTestHandler()
	control.active = true

	result := h.Dispatch("reset", nil)
	assert.True(t, result.Success)
	assert.False(t, control.active)
}

func TestDispatchStatus(t *testing.T) {
	h, _, streamer := newTestHandler()
	streamer.started = true
	streamer.interval = 2 * time.Second

	result := h.Dispatch("status", nil)
	require.True(t, result.Success)
	assert.Equal(t, int64(42), result.Data["total_samples"])

	cfg, ok := result.Data["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 10.0, cfg["rate_hz"])

	streaming, ok := result.Data["streaming"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, streaming["active"])
	assert.Equal(t, int64(2000), streaming["interval_ms"])
}

func TestDispatchConfigure(t *testing.T) {
	h, control, _ := newTestHandler()

	result := h.Dispatch("configure", map[string]any{
		"rate_hz":     20.0,
		"resolution":  "high",
		"min_range_m": 1.0,
	})
	require.True(t, result.Success)
	require.NotNil(t, control.appliedPatch)
	assert.Equal(t, 20.0, *control.appliedPatch.RateHz)
	assert.Equal(t, sensor.ResolutionHigh, *control.appliedPatch.Resolution)
	assert.Equal(t, 1.0, *control.appliedPatch.RangeMinM)
}

func TestDispatchConfigureIntegerParams(t *testing.T) {
	h, control, _ := newTestHandler()

	// Native callers may pass int where JSON delivers float64.
	result := h.Dispatch("configure", map[string]any{"rate_hz": 20})
	require.True(t, result.Success)
	require.NotNil(t, control.appliedPatch)
	assert.Equal(t, 20.0, *control.appliedPatch.RateHz)
}

func TestDispatchConfigureEmpty(t *testing.T) {
	h, _, _ := newTestHandler()

	result := h.Dispatch("configure", map[string]any{"unrelated": "x"})
	assert.False(t, result.Success)
}

func TestDispatchConfigureError(t *testing.T) {
	h, control, _ := newTestHandler()
	control.applyErr = errors.New().New(sensor.ErrInvalidRate)

	result := h.Dispatch("configure", map[string]any{"rate_hz": 999.0})
	assert.False(t, result.Success)
	assert.Contains(t, result.Data["message"], string(sensor.ErrInvalidRate))
}

func TestDispatchStreaming(t *testing.T) {
	h, _, streamer := newTestHandler()

	result := h.Dispatch("start_streaming", map[string]any{"interval_seconds": 0.5})
	require.True(t, result.Success)
	assert.Equal(t, 500*time.Millisecond, streamer.interval)

	result = h.Dispatch("stop_streaming", nil)
	require.True(t, result.Success)
	assert.Equal(t, 7, result.Data["transmissions"])
}

func TestDispatchStreamingDefaultInterval(t *testing.T) {
	h, _, streamer := newTestHandler()

	result := h.Dispatch("start_streaming", nil)
	require.True(t, result.Success)
	assert.Equal(t, time.Second, streamer.interval)
}

func TestDispatchStopStreamingWhenInactive(t *testing.T) {
	h, _, _ := newTestHandler()

	result := h.Dispatch("stop_streaming", nil)
	assert.False(t, result.Success)
}

func TestDispatchThresholds(t *testing.T) {
	thresholds := &fakeThresholds{}
	h, _, _ := newTestHandler(command.WithThresholdUpdater(thresholds))

	result := h.Dispatch("update_threshold", map[string]any{
		"sensor_id":    2,
		"threshold_cm": 75.0,
	})
	require.True(t, result.Success)
	assert.Equal(t, 2, thresholds.channel)
	assert.Equal(t, 75.0, thresholds.threshold)

	result = h.Dispatch("update_confidence", map[string]any{"confidence": 0.9})
	require.True(t, result.Success)
	assert.Equal(t, 0.9, thresholds.confidence)
}

func TestDispatchThresholdsMissingParams(t *testing.T) {
	h, _, _ := newTestHandler(command.WithThresholdUpdater(&fakeThresholds{}))

	assert.False(t, h.Dispatch("update_threshold", nil).Success)
	assert.False(t, h.Dispatch("update_threshold", map[string]any{"sensor_id": 1}).Success)
	assert.False(t, h.Dispatch("update_threshold", map[string]any{"sensor_id": "one", "threshold_cm": 50.0}).Success)
	assert.False(t, h.Dispatch("update_confidence", map[string]any{}).Success)
}

func TestDispatchThresholdsUnsupported(t *testing.T) {
	h, _, _ := newTestHandler()

	result := h.Dispatch("update_threshold", map[string]any{
		"sensor_id":    1,
		"threshold_cm": 50.0,
	})
	assert.False(t, result.Success, "family without thresholds rejects the action")
}

func TestDispatchUnknownAction(t *testing.T) {
	h, _, _ := newTestHandler()

	result := h.Dispatch("self_destruct", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Data["message"], "unknown action")
}
