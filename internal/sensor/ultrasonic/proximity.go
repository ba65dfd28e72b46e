package ultrasonic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/arlen/sensorctl/internal/errors"
	"codeberg.org/arlen/sensorctl/internal/logger"
	"codeberg.org/arlen/sensorctl/internal/metrics"
	"codeberg.org/arlen/sensorctl/internal/sensor"
	"codeberg.org/arlen/sensorctl/internal/telemetry"
)

const (
	defaultThresholdCm         = 50.0
	defaultConfidenceThreshold = 0.8
	minThresholdCm             = 5.0
	maxThresholdCm             = 200.0
)

// ProximityDetector raises alerts when a channel reads a distance at or
// below its threshold with sufficient confidence. It consumes the
// collector's queue from a single goroutine; when several channels alert on
// the same sample, the closest one wins.
type ProximityDetector struct {
	channels int
	emit     sensor.Emitter
	metrics  *metrics.Set

	mu                  sync.Mutex
	detecting           bool
	cancel              context.CancelFunc
	done                chan struct{}
	alertCount          int
	startTime           time.Time
	thresholds          map[int]float64
	confidenceThreshold float64
	alertSince          map[int]time.Time
	lastDistance        map[int]float64
}

type ProximityOption func(*ProximityDetector)

func WithProximityMetrics(m *metrics.Set) ProximityOption {
	return func(d *ProximityDetector) { d.metrics = m }
}

func NewProximityDetector(channels int, emit sensor.Emitter, opts ...ProximityOption) *ProximityDetector {
	if channels < 1 {
		channels = 1
	}
	thresholds := make(map[int]float64, channels)
	for ch := 1; ch <= channels; ch++ {
		thresholds[ch] = defaultThresholdCm
	}
	d := &ProximityDetector{
		channels:            channels,
		emit:                emit,
		thresholds:          thresholds,
		confidenceThreshold: defaultConfidenceThreshold,
		alertSince:          make(map[int]time.Time),
		lastDistance:        make(map[int]float64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ProximityStatus is a point-in-time view of the detector.
type ProximityStatus struct {
	Detecting           bool
	AlertsDetected      int
	Duration            time.Duration
	Thresholds          map[int]float64
	ConfidenceThreshold float64
}

// ProximityStats summarize a finished detection run.
type ProximityStats struct {
	AlertsDetected int
	Duration       time.Duration
}

// Start launches the consumer loop on the given queue. Duration tracking
// resets with each run.
func (d *ProximityDetector) Start(q *sensor.Queue) error {
	errFactory := errors.New()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.detecting {
		return errFactory.New(ErrDetectionActive)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	d.detecting = true
	d.cancel = cancel
	d.done = done
	d.alertCount = 0
	d.startTime = time.Now()
	d.alertSince = make(map[int]time.Time)
	d.lastDistance = make(map[int]float64)

	go d.run(ctx, q, done)

	logger.Info().
		Str("sensor", SensorType).
		Float64("confidence_threshold", d.confidenceThreshold).
		Msg("proximity detection started")

	return nil
}

// Stop ends the consumer loop and reports the run statistics.
func (d *ProximityDetector) Stop() (ProximityStats, error) {
	errFactory := errors.New()

	d.mu.Lock()
	if !d.detecting {
		d.mu.Unlock()
		return ProximityStats{}, errFactory.New(ErrDetectionInactive)
	}
	cancel := d.cancel
	done := d.done
	d.mu.Unlock()

	cancel()
	<-done

	d.mu.Lock()
	d.detecting = false
	d.cancel = nil
	d.done = nil
	stats := ProximityStats{
		AlertsDetected: d.alertCount,
		Duration:       time.Since(d.startTime),
	}
	d.mu.Unlock()

	logger.Info().
		Str("sensor", SensorType).
		Int("alerts", stats.AlertsDetected).
		Dur("duration", stats.Duration).
		Msg("proximity detection stopped")

	return stats, nil
}

func (d *ProximityDetector) Status() ProximityStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	thresholds := make(map[int]float64, len(d.thresholds))
	for ch, t := range d.thresholds {
		thresholds[ch] = t
	}

	status := ProximityStatus{
		Detecting:           d.detecting,
		AlertsDetected:      d.alertCount,
		Thresholds:          thresholds,
		ConfidenceThreshold: d.confidenceThreshold,
	}
	if d.detecting {
		status.Duration = time.Since(d.startTime)
	}
	return status
}

// UpdateChannelThreshold sets the alert distance for one channel.
func (d *ProximityDetector) UpdateChannelThreshold(channel int, thresholdCm float64) error {
	errFactory := errors.New()

	if channel < 1 || channel > d.channels {
		return errFactory.WithData(ErrInvalidChannel, channel)
	}
	if thresholdCm < minThresholdCm || thresholdCm > maxThresholdCm {
		return errFactory.WithData(ErrInvalidThreshold, fmt.Sprintf(
			"%.1f cm outside [%.0f, %.0f]", thresholdCm, minThresholdCm, maxThresholdCm))
	}

	d.mu.Lock()
	d.thresholds[channel] = thresholdCm
	d.mu.Unlock()

	logger.Info().
		Str("sensor", SensorType).
		Int("channel", channel).
		Float64("threshold_cm", thresholdCm).
		Msg("channel threshold updated")

	return nil
}

// UpdateConfidenceThreshold sets the minimum confidence for a reading to
// count.
func (d *ProximityDetector) UpdateConfidenceThreshold(confidence float64) error {
	if confidence < 0 || confidence > 1 {
		return errors.New().WithData(ErrInvalidConfidence, confidence)
	}

	d.mu.Lock()
	d.confidenceThreshold = confidence
	d.mu.Unlock()

	logger.Info().
		Str("sensor", SensorType).
		Float64("confidence_threshold", confidence).
		Msg("confidence threshold updated")

	return nil
}

func (d *ProximityDetector) run(ctx context.Context, q *sensor.Queue, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-q.C():
			result := d.Analyze(s)

			var emit sensor.Emitter
			if result.Detected {
				d.mu.Lock()
				d.alertCount++
				emit = d.emit
				d.mu.Unlock()
			}

			// Emit outside the lock, and only on an alert.
			if result.Detected && emit != nil {
				emit(result.Sample())
				d.metrics.Detection(SensorType)
			}
		}
	}
}

type channelAlert struct {
	channel     int
	distanceCm  float64
	thresholdCm float64
	durationMs  int64
	approaching bool
}

// Analyze checks every channel of one sample against its threshold. A
// channel alerts when its reading is confident and at or below threshold;
// the alert duration runs from the first uninterrupted crossing. Moving back
// above threshold clears the channel's tracking, so a later crossing starts
// a fresh duration.
func (d *ProximityDetector) Analyze(s *telemetry.Sample) *sensor.DetectionResult {
	now := time.Now()

	d.mu.Lock()
	var alerts []channelAlert
	for ch := 1; ch <= d.channels; ch++ {
		distance, ok := s.Float(fmt.Sprintf("ultrasonic.sensor_%d.distance_cm", ch))
		if !ok {
			continue
		}
		confidence, _ := s.Float(fmt.Sprintf("ultrasonic.sensor_%d.confidence", ch))

		prev, hadPrev := d.lastDistance[ch]
		d.lastDistance[ch] = distance

		if confidence < d.confidenceThreshold {
			continue
		}

		threshold := d.thresholds[ch]
		if distance > threshold {
			delete(d.alertSince, ch)
			continue
		}

		since, tracked := d.alertSince[ch]
		var durationMs int64
		if tracked {
			durationMs = now.Sub(since).Milliseconds()
		} else {
			d.alertSince[ch] = now
		}

		alerts = append(alerts, channelAlert{
			channel:     ch,
			distanceCm:  distance,
			thresholdCm: threshold,
			durationMs:  durationMs,
			approaching: hadPrev && distance < prev,
		})
	}
	d.mu.Unlock()

	if len(alerts) == 0 {
		return &sensor.DetectionResult{TS: s.TS}
	}

	closest := alerts[0]
	for _, a := range alerts[1:] {
		if a.distanceCm < closest.distanceCm {
			closest = a
		}
	}

	return &sensor.DetectionResult{
		TS:       s.TS,
		Detected: true,
		Values: map[string]any{
			"ultrasonic.proximity_alert.sensor_id":          closest.channel,
			"ultrasonic.proximity_alert.distance_cm":        closest.distanceCm,
			"ultrasonic.proximity_alert.threshold_cm":       closest.thresholdCm,
			"ultrasonic.proximity_alert.duration_ms":        closest.durationMs,
			"ultrasonic.proximity_alert.object_approaching": closest.approaching,
		},
	}
}
