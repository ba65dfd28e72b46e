package sensor

import (
	"time"

	"codeberg.org/arlen/sensorctl/internal/telemetry"
)

// Generator produces one synthetic telemetry sample from a configuration
// snapshot. Implementations must be pure apart from their randomness source;
// the collector calls them from its loop goroutine only.
type Generator interface {
	Generate(cfg Config, now time.Time) *telemetry.Sample
}

// DetectionResult is the outcome of analyzing one raw sample. When Detected
// is false the derived attributes in Values are zeroed; the input sample's
// quality metrics are always carried for traceability.
type DetectionResult struct {
	TS         int64
	Detected   bool
	Confidence float64
	Values     map[string]any
}

// Sample converts the result into the publishable telemetry shape.
func (r *DetectionResult) Sample() *telemetry.Sample {
	return &telemetry.Sample{TS: r.TS, Values: r.Values}
}

// Emitter receives detection results the detector decided to publish.
// It is the publish-callback contract of the platform bus.
type Emitter func(s *telemetry.Sample)
