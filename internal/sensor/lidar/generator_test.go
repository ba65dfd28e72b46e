package lidar_test

import (
	"math/rand"
	"testing"
	"time"

	"codeberg.org/arlen/sensorctl/internal/sensor"
	"codeberg.org/arlen/sensorctl/internal/sensor/lidar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanConfig(res sensor.Resolution) sensor.Config {
	return sensor.Config{
		RateHz:     10.0,
		Resolution: res,
		RangeMinM:  0.5,
		RangeMaxM:  30.0,
	}
}

func TestGenerateProducesAllMetrics(t *testing.T) {
	gen := lidar.NewGenerator(rand.New(rand.NewSource(1)))
	now := time.Now()

	s := gen.Generate(scanConfig(sensor.ResolutionMedium), now)

	assert.Equal(t, now.UnixMilli(), s.TS)
	for _, key := range []string{
		"lidar.point_count",
		"lidar.valid_points",
		"lidar.max_range",
		"lidar.min_range",
		"lidar.avg_reflectivity",
		"lidar.scan_frequency",
		"lidar.temperature",
		"lidar.status",
	} {
		assert.Contains(t, s.Values, key)
	}
}

func TestGeneratePointCountByResolution(t *testing.T) {
	gen := lidar.NewGenerator(rand.New(rand.NewSource(42)))

	for i := 0; i < 200; i++ {
		high, _ := gen.Generate(scanConfig(sensor.ResolutionHigh), time.Now()).Float("lidar.point_count")
		assert.InDelta(t, 295000, high, 15000)

		medium, _ := gen.Generate(scanConfig(sensor.ResolutionMedium), time.Now()).Float("lidar.point_count")
		assert.InDelta(t, 275000, medium, 15000)

		low, _ := gen.Generate(scanConfig(sensor.ResolutionLow), time.Now()).Float("lidar.point_count")
		assert.InDelta(t, 255000, low, 7500)
	}
}

func TestGenerateValidPointRatio(t *testing.T) {
	gen := lidar.NewGenerator(rand.New(rand.NewSource(7)))

	for i := 0; i < 200; i++ {
		s := gen.Generate(scanConfig(sensor.ResolutionMedium), time.Now())
		pointCount, ok := s.Float("lidar.point_count")
		require.True(t, ok)
		validPoints, ok := s.Float("lidar.valid_points")
		require.True(t, ok)

		ratio := validPoints / pointCount
		assert.GreaterOrEqual(t, ratio, 0.91, "valid point ratio below band")
		assert.LessOrEqual(t, ratio, 0.99, "valid point ratio above band")
	}
}

func TestGenerateRangeStaysInsideFilter(t *testing.T) {
	gen := lidar.NewGenerator(rand.New(rand.NewSource(13)))
	cfg := scanConfig(sensor.ResolutionMedium)

	for i := 0; i < 200; i++ {
		s := gen.Generate(cfg, time.Now())
		maxRange, _ := s.Float("lidar.max_range")
		minRange, _ := s.Float("lidar.min_range")

		assert.LessOrEqual(t, maxRange, cfg.RangeMaxM)
		assert.GreaterOrEqual(t, maxRange, cfg.RangeMaxM*0.95, "max range drifts at most 5% inward")
		assert.GreaterOrEqual(t, minRange, cfg.RangeMinM)
		assert.Less(t, minRange, maxRange)
	}
}

func TestGenerateScanFrequencyTracksRate(t *testing.T) {
	gen := lidar.NewGenerator(rand.New(rand.NewSource(99)))
	cfg := scanConfig(sensor.ResolutionMedium)

	for i := 0; i < 100; i++ {
		freq, _ := gen.Generate(cfg, time.Now()).Float("lidar.scan_frequency")
		assert.InDelta(t, cfg.RateHz, freq, 0.21)
	}
}

func TestGenerateStatusValues(t *testing.T) {
	gen := lidar.NewGenerator(rand.New(rand.NewSource(5)))
	seen := map[string]bool{}

	for i := 0; i < 500; i++ {
		s := gen.Generate(scanConfig(sensor.ResolutionMedium), time.Now())
		status, ok := s.Values["lidar.status"].(string)
		require.True(t, ok)
		assert.Contains(t, []string{"operational", "warming_up", "calibrating"}, status)
		seen[status] = true
	}

	assert.True(t, seen["operational"], "operational must dominate the status mix")
}
