package telemetry

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNewMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.RecordLogin(ctx, true)
	m.RecordLogin(ctx, false)
	m.RecordRefresh(ctx, true)
	m.RecordRevocations(ctx, "logout_all", 3)
	m.RecordRevocations(ctx, "cap", 0) // zero increment is skipped
	m.RecordBlacklistDenial(ctx)
	m.RecordSweepDeletions(ctx, "sessions", 7)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordLogin(ctx, true)
	m.RecordRefresh(ctx, false)
	m.RecordRevocations(ctx, "logout", 1)
	m.RecordBlacklistDenial(ctx)
	m.RecordSweepDeletions(ctx, "blacklist", 1)
}
