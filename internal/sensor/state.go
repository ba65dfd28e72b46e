package sensor

import "time"

type Status string

const (
	StatusIdle        Status = "idle"
	StatusOperational Status = "operational"
	StatusWarmingUp   Status = "warming_up"
	StatusCalibrating Status = "calibrating"
	StatusError       Status = "error"
)

// State is the lifecycle state of one sensor family, owned exclusively by
// its control service.
type State struct {
	Active       bool
	Status       Status
	LastStarted  time.Time
	LastStopped  time.Time
	TotalSamples int64
	ErrorCount   int
}
