// Package tracer provides a lightweight tracing abstraction for the ledger.
//
// The interface does not depend on OpenTelemetry APIs, so the ledger can emit
// traces while staying decoupled from a specific tracing implementation.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	//
	// Example:
	//   ctx, span := tracer.Start(ctx, tracer.SpanSubmit,
	//       tracer.Int64(tracer.AttrCourseID, int64(cmd.CourseID)),
	//   )
	//   defer span.End(err)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the ledger.
const (
	SpanSubmit      = "ledger.submit"
	SpanUpdate      = "ledger.update"
	SpanConfigure   = "ledger.configure"
	SpanIssue       = "ledger.certificate.issue"
	SpanFeeTransfer = "ledger.fee.transfer"
	SpanReward      = "ledger.reward.distribute"
)

// Attribute keys used by the ledger.
const (
	AttrVerificationID   = "verification_id"
	AttrCourseID         = "course_id"
	AttrVerificationType = "verification_type"
	AttrStatus           = "status"
	AttrBlockHeight      = "block_height"
	AttrSetting          = "setting"
	AttrAmount           = "amount"
)

// Event names used by the ledger.
const (
	EventCertificateSkipped = "certificate.skipped"
	EventRewardSkipped      = "reward.skipped"
)
