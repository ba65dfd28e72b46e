package lidar

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"codeberg.org/arlen/sensorctl/internal/errors"
	"codeberg.org/arlen/sensorctl/internal/logger"
	"codeberg.org/arlen/sensorctl/internal/metrics"
	"codeberg.org/arlen/sensorctl/internal/sensor"
	"codeberg.org/arlen/sensorctl/internal/telemetry"
)

const defaultConfidenceThreshold = 0.75

// OccupancyDetector analyzes scan samples for parking space occupancy. It
// consumes the collector's queue from a single goroutine and emits a result
// only when occupancy is detected.
type OccupancyDetector struct {
	emit    sensor.Emitter
	metrics *metrics.Set
	rng     *rand.Rand

	mu                  sync.Mutex
	detecting           bool
	cancel              context.CancelFunc
	done                chan struct{}
	detectionCount      int
	currentOccupancy    bool
	startTime           time.Time
	confidenceThreshold float64
}

type OccupancyOption func(*OccupancyDetector)

func WithOccupancyMetrics(m *metrics.Set) OccupancyOption {
	return func(d *OccupancyDetector) { d.metrics = m }
}

func WithOccupancyRand(rng *rand.Rand) OccupancyOption {
	return func(d *OccupancyDetector) { d.rng = rng }
}

func NewOccupancyDetector(emit sensor.Emitter, opts ...OccupancyOption) *OccupancyDetector {
	d := &OccupancyDetector{
		emit:                emit,
		confidenceThreshold: defaultConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return d
}

// OccupancyStatus is a point-in-time view of the detector.
type OccupancyStatus struct {
	Detecting           bool
	TotalDetections     int
	Duration            time.Duration
	CurrentOccupancy    bool
	ConfidenceThreshold float64
}

// OccupancyStats summarize a finished detection run.
type OccupancyStats struct {
	TotalDetections int
	Duration        time.Duration
}

// Start launches the consumer loop on the given queue.
func (d *OccupancyDetector) Start(q *sensor.Queue) error {
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
	d.detectionCount = 0
	d.currentOccupancy = false
	d.startTime = time.Now()

	go d.run(ctx, q, done)

	logger.Info().Str("sensor", SensorType).Msg("occupancy detection started")

	return nil
}

// Stop ends the consumer loop and reports the run statistics.
func (d *OccupancyDetector) Stop() (OccupancyStats, error) {
	errFactory := errors.New()

	d.mu.Lock()
	if !d.detecting {
		d.mu.Unlock()
		return OccupancyStats{}, errFactory.New(ErrDetectionInactive)
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
	stats := OccupancyStats{
		TotalDetections: d.detectionCount,
		Duration:        time.Since(d.startTime),
	}
	d.mu.Unlock()

	logger.Info().
		Str("sensor", SensorType).
		Int("detections", stats.TotalDetections).
		Dur("duration", stats.Duration).
		Msg("occupancy detection stopped")

	return stats, nil
}

func (d *OccupancyDetector) Status() OccupancyStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := OccupancyStatus{
		Detecting:           d.detecting,
		TotalDetections:     d.detectionCount,
		CurrentOccupancy:    d.currentOccupancy,
		ConfidenceThreshold: d.confidenceThreshold,
	}
	if d.detecting {
		status.Duration = time.Since(d.startTime)
	}
	return status
}

func (d *OccupancyDetector) run(ctx context.Context, q *sensor.Queue, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-q.C():
			result := d.Analyze(s)

			d.mu.Lock()
			d.detectionCount++
			d.currentOccupancy = result.Detected
			emit := d.emit
			d.mu.Unlock()

			// Emit outside the lock, and only on detection.
			if result.Detected && emit != nil {
				emit(result.Sample())
				d.metrics.Detection(SensorType)
			}
		}
	}
}

// Analyze derives an occupancy verdict from one scan sample. Higher point
// counts make occupancy more likely; confidence tracks the valid point
// ratio. Object attributes are synthesized on detection and zeroed
// otherwise.
func (d *OccupancyDetector) Analyze(s *telemetry.Sample) *sensor.DetectionResult {
	pointCountF, _ := s.Float("lidar.point_count")
	validPointsF, _ := s.Float("lidar.valid_points")
	pointCount := int(pointCountF)
	validPoints := int(validPointsF)

	detected := d.analyzePointCloud(pointCount)
	confidence := d.calculateConfidence(pointCount, validPoints)

	values := map[string]any{
		"lidar.occupancy.detected":   detected,
		"lidar.occupancy.confidence": confidence,
	}

	if detected {
		height := round2(1.4 + d.rng.Float64()*0.7)
		width := round2(1.6 + d.rng.Float64()*0.6)
		length := round2(3.8 + d.rng.Float64()*1.7)
		distance := round1(1.5 + d.rng.Float64()*6.5)

		// Closer objects return more points per square meter.
		baseDensity := 200.0 - distance*15.0
		density := int(baseDensity - 30 + d.rng.Float64()*60)
		if density < 50 {
			density = 50
		}

		values["lidar.occupancy.object_height"] = height
		values["lidar.occupancy.object_width"] = width
		values["lidar.occupancy.object_length"] = length
		values["lidar.occupancy.distance_from_sensor"] = distance
		values["lidar.occupancy.point_density"] = density
	} else {
		values["lidar.occupancy.object_height"] = 0.0
		values["lidar.occupancy.object_width"] = 0.0
		values["lidar.occupancy.object_length"] = 0.0
		values["lidar.occupancy.distance_from_sensor"] = 0.0
		values["lidar.occupancy.point_density"] = 0
	}

	dataQuality := 0.0
	if pointCount > 0 {
		dataQuality = round3(float64(validPoints) / float64(pointCount))
	}
	values["lidar.occupancy.point_count"] = pointCount
	values["lidar.occupancy.valid_points"] = validPoints
	values["lidar.occupancy.data_quality"] = dataQuality
	values["lidar.occupancy.analysis_timestamp"] = time.Now().UnixMilli()

	return &sensor.DetectionResult{
		TS:         s.TS,
		Detected:   detected,
		Confidence: confidence,
		Values:     values,
	}
}

func (d *OccupancyDetector) analyzePointCloud(pointCount int) bool {
	switch {
	case pointCount > 280000:
		return d.rng.Intn(3) < 2
	case pointCount < 260000:
		return d.rng.Intn(3) < 1
	default:
		return d.rng.Intn(2) == 0
	}
}

func (d *OccupancyDetector) calculateConfidence(pointCount, validPoints int) float64 {
	dataQuality := 0.0
	if pointCount > 0 {
		dataQuality = float64(validPoints) / float64(pointCount)
	}

	confidence := 0.7 + dataQuality*0.25 - 0.05 + d.rng.Float64()*0.1
	if confidence < 0.5 {
		confidence = 0.5
	}
	if confidence > 0.99 {
		confidence = 0.99
	}
	return round2(confidence)
}
