package telemetry

import "time"

// Sample is one timestamped set of named metric values produced by a sensor
// generator. Samples are treated as immutable once created; consumers that
// need to mutate must Clone first.
type Sample struct {
	TS     int64          `json:"ts"`
	Values map[string]any `json:"values"`
}

// NewSample builds a sample stamped with the given wall-clock time in
// epoch milliseconds.
func NewSample(now time.Time, values map[string]any) *Sample {
	return &Sample{
		TS:     now.UnixMilli(),
		Values: values,
	}
}

// Clone returns a deep copy safe to hand across goroutines.
func (s *Sample) Clone() *Sample {
	if s == nil {
		return nil
	}
	values := make(map[string]any, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	return &Sample{TS: s.TS, Values: values}
}

// Float reads a numeric metric, tolerating the integer types that survive
// a JSON round trip.
func (s *Sample) Float(key string) (float64, bool) {
	v, ok := s.Values[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
