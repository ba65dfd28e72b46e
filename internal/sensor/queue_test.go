package sensor_test

import (
	"testing"

	"codeberg.org/arlen/sensorctl/internal/sensor"
	"codeberg.org/arlen/sensorctl/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	q := sensor.NewQueue("test", 2, nil)

	s1 := &telemetry.Sample{TS: 1}
	s2 := &telemetry.Sample{TS: 2}

	assert.True(t, q.Enqueue(s1))
	assert.True(t, q.Enqueue(s2))
	assert.Equal(t, 2, q.Len())

	got := <-q.C()
	assert.Equal(t, int64(1), got.TS)
	got = <-q.C()
	assert.Equal(t, int64(2), got.TS)
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := sensor.NewQueue("test", 1, nil)

	require.True(t, q.Enqueue(&telemetry.Sample{TS: 1}))
	assert.False(t, q.Enqueue(&telemetry.Sample{TS: 2}), "full queue must drop, not block")

	// The oldest sample is the one retained.
	got := <-q.C()
	assert.Equal(t, int64(1), got.TS)
}

func TestQueueMinimumCapacity(t *testing.T) {
	q := sensor.NewQueue("test", 0, nil)
	assert.True(t, q.Enqueue(&telemetry.Sample{TS: 1}))
}
