// Package ultrasonic implements the ultrasonic sensor family: multi-channel
// distance telemetry generation and proximity alert detection.
package ultrasonic

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"codeberg.org/arlen/sensorctl/internal/sensor"
	"codeberg.org/arlen/sensorctl/internal/telemetry"
)

const SensorType = "ultrasonic"

// Generator produces synthetic distance readings for a fixed set of
// channels. Distances are reported in centimeters while the range filter is
// configured in meters.
type Generator struct {
	channels int
	rng      *rand.Rand
}

func NewGenerator(channels int, rng *rand.Rand) *Generator {
	if channels < 1 {
		channels = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{channels: channels, rng: rng}
}

func (g *Generator) Channels() int { return g.channels }

// Generate builds one reading per channel. Confidence degrades with
// distance, matching how echo strength falls off.
func (g *Generator) Generate(cfg sensor.Config, now time.Time) *telemetry.Sample {
	minCm := cfg.RangeMinM * 100
	maxCm := cfg.RangeMaxM * 100

	values := make(map[string]any, g.channels*3)
	for ch := 1; ch <= g.channels; ch++ {
		distance := round1(minCm + g.rng.Float64()*(maxCm-minCm))
		values[fmt.Sprintf("ultrasonic.sensor_%d.distance_cm", ch)] = distance
		values[fmt.Sprintf("ultrasonic.sensor_%d.confidence", ch)] = g.confidenceFor(distance)
		values[fmt.Sprintf("ultrasonic.sensor_%d.temperature_compensated", ch)] = true
	}

	return telemetry.NewSample(now, values)
}

func (g *Generator) confidenceFor(distanceCm float64) float64 {
	var low, high float64
	switch {
	case distanceCm < 50:
		low, high = 0.95, 0.99
	case distanceCm < 150:
		low, high = 0.90, 0.97
	case distanceCm < 300:
		low, high = 0.85, 0.94
	default:
		low, high = 0.80, 0.91
	}
	return round2(low + g.rng.Float64()*(high-low))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
