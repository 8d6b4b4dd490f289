package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncRegisterSuccess is a no-op.
func (n *NoopRecorder) IncRegisterSuccess() {}

// IncRegisterDuplicate is a no-op.
func (n *NoopRecorder) IncRegisterDuplicate() {}

// IncLoginSuccess is a no-op.
func (n *NoopRecorder) IncLoginSuccess() {}

// IncLoginFailure is a no-op.
func (n *NoopRecorder) IncLoginFailure() {}

// IncSessionVerified is a no-op.
func (n *NoopRecorder) IncSessionVerified() {}

// IncSessionRejected is a no-op.
func (n *NoopRecorder) IncSessionRejected() {}

// IncSessionRevoked is a no-op.
func (n *NoopRecorder) IncSessionRevoked() {}

// ObserveHashDuration is a no-op.
func (n *NoopRecorder) ObserveHashDuration(duration time.Duration) {}

// IncAuditEventPublished is a no-op.
func (n *NoopRecorder) IncAuditEventPublished(status string) {}

// IncAuditEventProcessed is a no-op.
func (n *NoopRecorder) IncAuditEventProcessed(status string) {}

// ObserveAuditBatchSize is a no-op.
func (n *NoopRecorder) ObserveAuditBatchSize(size int) {}

// SetAuditQueueDepth is a no-op.
func (n *NoopRecorder) SetAuditQueueDepth(depth int64) {}
