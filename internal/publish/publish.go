// Package publish defines the telemetry publisher contract and its adapters.
// Publishers receive fully-formed samples; failures are the caller's to log,
// never to propagate out of a streaming loop.
package publish

import (
	"context"

	"codeberg.org/arlen/sensorctl/internal/telemetry"
)

// Publisher forwards one telemetry sample to the platform bus. The sensor
// family keys the message so readings from one device stay ordered.
type Publisher interface {
	Publish(ctx context.Context, sensorType string, s *telemetry.Sample) error
	Close() error
}

// Func adapts a plain function to the Publisher interface.
type Func func(ctx context.Context, sensorType string, s *telemetry.Sample) error

func (f Func) Publish(ctx context.Context, sensorType string, s *telemetry.Sample) error {
	return f(ctx, sensorType, s)
}

func (Func) Close() error { return nil }
