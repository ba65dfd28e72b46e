// Package lidar implements the LiDAR sensor family: synthetic point cloud
// telemetry generation and occupancy detection on top of it.
package lidar

import (
	"math"
	"math/rand"
	"time"

	"codeberg.org/arlen/sensorctl/internal/sensor"
	"codeberg.org/arlen/sensorctl/internal/telemetry"
)

const SensorType = "lidar"

const (
	basePointCount     = 275000
	pointCountVariance = 15000
	temperatureBase    = 35.0
	temperatureRange   = 5.0
)

// Generator produces synthetic LiDAR scan telemetry. The randomness source
// is injected so tests can run deterministically.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate builds one scan sample from the configuration snapshot. Point
// count scales with resolution, and the reported range stays strictly
// inside the configured filter.
func (g *Generator) Generate(cfg sensor.Config, now time.Time) *telemetry.Sample {
	base := basePointCount
	variance := pointCountVariance
	switch cfg.Resolution {
	case sensor.ResolutionHigh:
		base += 20000
	case sensor.ResolutionLow:
		base -= 20000
		variance /= 2
	}

	pointCount := base - variance + g.rng.Intn(2*variance+1)
	validLow := int(float64(pointCount) * 0.92)
	validHigh := int(float64(pointCount) * 0.98)
	validPoints := validLow + g.rng.Intn(validHigh-validLow+1)

	// Reported ranges drift inward only, never past the configured limits.
	maxVariance := math.Min(1.0, cfg.RangeMaxM*0.05)
	minVariance := math.Min(0.05, cfg.RangeMinM*0.1)
	maxRange := math.Min(cfg.RangeMaxM-g.rng.Float64()*maxVariance, cfg.RangeMaxM)
	minRange := math.Max(cfg.RangeMinM+g.rng.Float64()*minVariance, cfg.RangeMinM)

	reflectivity := round2(0.65 + g.rng.Float64()*0.20)
	scanFrequency := round2(cfg.RateHz - 0.2 + g.rng.Float64()*0.4)
	temperature := round1(temperatureBase - temperatureRange + g.rng.Float64()*2*temperatureRange)

	return telemetry.NewSample(now, map[string]any{
		"lidar.point_count":      pointCount,
		"lidar.valid_points":     validPoints,
		"lidar.max_range":        round1(maxRange),
		"lidar.min_range":        round2(minRange),
		"lidar.avg_reflectivity": reflectivity,
		"lidar.scan_frequency":   scanFrequency,
		"lidar.temperature":      temperature,
		"lidar.status":           g.pickStatus(),
	})
}

// pickStatus is weighted toward operational.
func (g *Generator) pickStatus() string {
	statuses := []string{"operational", "operational", "operational", "warming_up", "calibrating"}
	return statuses[g.rng.Intn(len(statuses))]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
