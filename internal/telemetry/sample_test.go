package telemetry_test

import (
	"encoding/json"
	"testing"
	"time"

	"codeberg.org/arlen/sensorctl/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSampleStampsMilliseconds(t *testing.T) {
	now := time.Now()
	s := telemetry.NewSample(now, map[string]any{"k": 1})
	assert.Equal(t, now.UnixMilli(), s.TS)
}

func TestSampleCloneIsIndependent(t *testing.T) {
	s := telemetry.NewSample(time.Now(), map[string]any{"k": 1})
	c := s.Clone()

	c.Values["k"] = 2
	assert.Equal(t, 1, s.Values["k"])

	var nilSample *telemetry.Sample
	assert.Nil(t, nilSample.Clone())
}

func TestSampleFloatTolerance(t *testing.T) {
	s := &telemetry.Sample{Values: map[string]any{
		"f64": 1.5,
		"f32": float32(2.5),
		"i":   3,
		"i64": int64(4),
		"str": "nope",
	}}

	v, ok := s.Float("f64")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	v, ok = s.Float("f32")
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	v, ok = s.Float("i")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = s.Float("i64")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	_, ok = s.Float("str")
	assert.False(t, ok)
	_, ok = s.Float("missing")
	assert.False(t, ok)
}

func TestSampleJSONShape(t *testing.T) {
	s := &telemetry.Sample{TS: 1700000000000, Values: map[string]any{"lidar.point_count": 275000}}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ts":1700000000000,"values":{"lidar.point_count":275000}}`, string(data))
}

func TestSessionLogOrdering(t *testing.T) {
	l := telemetry.NewSessionLog("lidar", time.Now())
	assert.Equal(t, "lidar", l.SensorType())
	assert.NotEqual(t, "", l.ID().String())

	for i := 1; i <= 5; i++ {
		l.Append(&telemetry.Sample{TS: int64(i)})
	}
	assert.Equal(t, 5, l.Len())

	snap := l.Snapshot()
	require.Len(t, snap, 5)
	for i, s := range snap {
		assert.Equal(t, int64(i+1), s.TS)
	}

	// Snapshot is a copy of the slice, not a live view.
	l.Append(&telemetry.Sample{TS: 6})
	assert.Len(t, snap, 5)
}

func TestSessionLogIDsAreUnique(t *testing.T) {
	a := telemetry.NewSessionLog("lidar", time.Now())
	b := telemetry.NewSessionLog("lidar", time.Now())
	assert.NotEqual(t, a.ID(), b.ID())
}
