// Package metrics exposes the agent's Prometheus instrumentation. A nil *Set
// is valid and counts nothing, so collaborators take it as an optional
// dependency.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Set struct {
	samplesGenerated *prometheus.CounterVec
	samplesPublished *prometheus.CounterVec
	detections       *prometheus.CounterVec
	queueDropped     *prometheus.CounterVec
	loopErrors       *prometheus.CounterVec
}

// New registers the counter set on reg. Passing prometheus.DefaultRegisterer
// wires the default /metrics exposition.
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		samplesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorctl_samples_generated_total",
			Help: "Telemetry samples produced by the generation loops.",
		}, []string{"sensor"}),
		samplesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorctl_samples_published_total",
			Help: "Telemetry samples handed to the publisher.",
		}, []string{"sensor"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorctl_detections_total",
			Help: "Detection results emitted with detected=true.",
		}, []string{"sensor"}),
		queueDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorctl_queue_dropped_total",
			Help: "Samples dropped because the detection queue was full.",
		}, []string{"sensor"}),
		loopErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorctl_loop_errors_total",
			Help: "Recovered errors inside background loops.",
		}, []string{"sensor"}),
	}

	reg.MustRegister(
		s.samplesGenerated,
		s.samplesPublished,
		s.detections,
		s.queueDropped,
		s.loopErrors,
	)

	return s
}

func (s *Set) SampleGenerated(sensor string) {
	if s == nil {
		return
	}
	s.samplesGenerated.WithLabelValues(sensor).Inc()
}

func (s *Set) SamplePublished(sensor string) {
	if s == nil {
		return
	}
	s.samplesPublished.WithLabelValues(sensor).Inc()
}

func (s *Set) Detection(sensor string) {
	if s == nil {
		return
	}
	s.detections.WithLabelValues(sensor).Inc()
}

func (s *Set) QueueDropped(sensor string) {
	if s == nil {
		return
	}
	s.queueDropped.WithLabelValues(sensor).Inc()
}

func (s *Set) LoopError(sensor string) {
	if s == nil {
		return
	}
	s.loopErrors.WithLabelValues(sensor).Inc()
}
