// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Registration metrics
	IncRegisterSuccess()
	IncRegisterDuplicate()

	// Login metrics
	IncLoginSuccess()
	IncLoginFailure()

	// Session metrics
	IncSessionVerified()
	IncSessionRejected()
	IncSessionRevoked()

	// Credential work metrics
	ObserveHashDuration(duration time.Duration)

	// Audit pipeline metrics
	IncAuditEventPublished(status string)
	IncAuditEventProcessed(status string)
	ObserveAuditBatchSize(size int)
	SetAuditQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
