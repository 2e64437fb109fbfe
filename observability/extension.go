// Package observability provides an extension recording booking lifecycle
// metrics through OpenTelemetry.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/booking/ext"
	"github.com/xraph/booking/id"
	"github.com/xraph/booking/job"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*MetricsExtension)(nil)
	_ ext.JobCreated       = (*MetricsExtension)(nil)
	_ ext.JobClaimed       = (*MetricsExtension)(nil)
	_ ext.JobCancelled     = (*MetricsExtension)(nil)
	_ ext.JobReopened      = (*MetricsExtension)(nil)
	_ ext.JobExpired       = (*MetricsExtension)(nil)
	_ ext.SessionEnded     = (*MetricsExtension)(nil)
	_ ext.NotificationSent = (*MetricsExtension)(nil)
)

const meterName = "github.com/xraph/booking/observability"

// MetricsExtension records booking lifecycle metrics. Register it on the
// engine to track creation rates, claim counts, cancellations, expiries,
// session lengths, and notification volume per channel.
type MetricsExtension struct {
	jobCreated       metric.Int64Counter
	jobClaimed       metric.Int64Counter
	jobCancelled     metric.Int64Counter
	jobReopened      metric.Int64Counter
	jobExpired       metric.Int64Counter
	sessionEnded     metric.Int64Counter
	sessionMinutes   metric.Float64Histogram
	notificationSent metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global meter provider.
func NewMetricsExtension() (*MetricsExtension, error) {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension on the provided
// meter. Use a reader-backed meter in tests.
func NewMetricsExtensionWithMeter(meter metric.Meter) (*MetricsExtension, error) {
	m := &MetricsExtension{}

	var err error
	if m.jobCreated, err = meter.Int64Counter("booking.job.created"); err != nil {
		return nil, err
	}
	if m.jobClaimed, err = meter.Int64Counter("booking.job.claimed"); err != nil {
		return nil, err
	}
	if m.jobCancelled, err = meter.Int64Counter("booking.job.cancelled"); err != nil {
		return nil, err
	}
	if m.jobReopened, err = meter.Int64Counter("booking.job.reopened"); err != nil {
		return nil, err
	}
	if m.jobExpired, err = meter.Int64Counter("booking.job.expired"); err != nil {
		return nil, err
	}
	if m.sessionEnded, err = meter.Int64Counter("booking.session.ended"); err != nil {
		return nil, err
	}
	if m.sessionMinutes, err = meter.Float64Histogram("booking.session.minutes",
		metric.WithUnit("min")); err != nil {
		return nil, err
	}
	if m.notificationSent, err = meter.Int64Counter("booking.notification.sent"); err != nil {
		return nil, err
	}
	return m, nil
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Booking lifecycle hooks ─────────────────────────

// OnJobCreated implements ext.JobCreated.
func (m *MetricsExtension) OnJobCreated(ctx context.Context, j *job.Job) error {
	m.jobCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(j.Type)),
		attribute.Bool("immediate", j.Immediate),
	))
	return nil
}

// OnJobClaimed implements ext.JobClaimed.
func (m *MetricsExtension) OnJobClaimed(ctx context.Context, j *job.Job, _ id.TranslatorID) error {
	m.jobClaimed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(j.Type)),
	))
	return nil
}

// OnJobCancelled implements ext.JobCancelled.
func (m *MetricsExtension) OnJobCancelled(ctx context.Context, j *job.Job, byTranslator bool) error {
	m.jobCancelled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(j.Status)),
		attribute.Bool("by_translator", byTranslator),
	))
	return nil
}

// OnJobReopened implements ext.JobReopened.
func (m *MetricsExtension) OnJobReopened(ctx context.Context, _ *job.Job) error {
	m.jobReopened.Add(ctx, 1)
	return nil
}

// OnJobExpired implements ext.JobExpired.
func (m *MetricsExtension) OnJobExpired(ctx context.Context, _ *job.Job) error {
	m.jobExpired.Add(ctx, 1)
	return nil
}

// OnSessionEnded implements ext.SessionEnded.
func (m *MetricsExtension) OnSessionEnded(ctx context.Context, _ *job.Job, sessionTime time.Duration) error {
	m.sessionEnded.Add(ctx, 1)
	m.sessionMinutes.Record(ctx, sessionTime.Minutes())
	return nil
}

// ── Other hooks ─────────────────────────────────────

// OnNotificationSent implements ext.NotificationSent.
func (m *MetricsExtension) OnNotificationSent(ctx context.Context, channel string, recipients int) error {
	m.notificationSent.Add(ctx, int64(recipients), metric.WithAttributes(
		attribute.String("channel", channel),
	))
	return nil
}
