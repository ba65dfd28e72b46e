package telemetry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionLog is the ordered in-memory record of one generation session,
// identified by its start time.
type SessionLog struct {
	id         uuid.UUID
	sensorType string
	startedAt  time.Time

	mu      sync.Mutex
	samples []*Sample
}

func NewSessionLog(sensorType string, startedAt time.Time) *SessionLog {
	return &SessionLog{
		id:         uuid.New(),
		sensorType: sensorType,
		startedAt:  startedAt,
	}
}

func (l *SessionLog) ID() uuid.UUID { return l.id }

func (l *SessionLog) SensorType() string { return l.sensorType }

// StartEpoch returns the session key used in file names.
func (l *SessionLog) StartEpoch() int64 { return l.startedAt.Unix() }

func (l *SessionLog) StartedAt() time.Time { return l.startedAt }

func (l *SessionLog) Append(s *Sample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, s)
}

func (l *SessionLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}

// Snapshot returns a copy of the sample slice. The samples themselves are
// shared; they are immutable by contract.
func (l *SessionLog) Snapshot() []*Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Sample, len(l.samples))
	copy(out, l.samples)
	return out
}
