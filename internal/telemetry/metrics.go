// Package telemetry holds the service's metric instruments.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics bundles the counters the auth core reports. All methods are
// nil-safe so services can run without a meter wired up (tests, tools).
type Metrics struct {
	logins           metric.Int64Counter
	refreshes        metric.Int64Counter
	revocations      metric.Int64Counter
	blacklistDenials metric.Int64Counter
	sweepDeletions   metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	logins, err := meter.Int64Counter("auth.logins",
		metric.WithDescription("Login attempts by outcome"))
	if err != nil {
		return nil, err
	}
	refreshes, err := meter.Int64Counter("auth.refreshes",
		metric.WithDescription("Access token refreshes by outcome"))
	if err != nil {
		return nil, err
	}
	revocations, err := meter.Int64Counter("auth.session_revocations",
		metric.WithDescription("Sessions revoked, by reason"))
	if err != nil {
		return nil, err
	}
	blacklistDenials, err := meter.Int64Counter("auth.blacklist_denials",
		metric.WithDescription("Requests rejected because the access token was blacklisted"))
	if err != nil {
		return nil, err
	}
	sweepDeletions, err := meter.Int64Counter("auth.sweep_deletions",
		metric.WithDescription("Expired rows removed by the background sweep, by store"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		logins:           logins,
		refreshes:        refreshes,
		revocations:      revocations,
		blacklistDenials: blacklistDenials,
		sweepDeletions:   sweepDeletions,
	}, nil
}

func (m *Metrics) RecordLogin(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

func (m *Metrics) RecordRefresh(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

func (m *Metrics) RecordRevocations(ctx context.Context, reason string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.revocations.Add(ctx, n, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) RecordBlacklistDenial(ctx context.Context) {
	if m == nil {
		return
	}
	m.blacklistDenials.Add(ctx, 1)
}

func (m *Metrics) RecordSweepDeletions(ctx context.Context, store string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.sweepDeletions.Add(ctx, n, metric.WithAttributes(attribute.String("store", store)))
}
