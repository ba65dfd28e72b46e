package sensor

import (
	"codeberg.org/arlen/sensorctl/internal/metrics"
	"codeberg.org/arlen/sensorctl/internal/telemetry"
)

// Queue is the bounded hand-off between a collector and its detector
// consumer. Enqueue never blocks the generation loop: when the consumer
// falls behind, the newest sample is dropped and counted.
type Queue struct {
	sensor  string
	ch      chan *telemetry.Sample
	metrics *metrics.Set
}

func NewQueue(sensor string, capacity int, m *metrics.Set) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		sensor:  sensor,
		ch:      make(chan *telemetry.Sample, capacity),
		metrics: m,
	}
}

// Enqueue offers one sample to the consumer and reports whether it was
// accepted.
func (q *Queue) Enqueue(s *telemetry.Sample) bool {
	select {
	case q.ch <- s:
		return true
	default:
		q.metrics.QueueDropped(q.sensor)
		return false
	}
}

// C is the consumer side of the queue.
func (q *Queue) C() <-chan *telemetry.Sample {
	return q.ch
}

func (q *Queue) Len() int {
	return len(q.ch)
}
