package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	RegisterSuccesses   uint64
	RegisterDuplicates  uint64
	LoginSuccesses      uint64
	LoginFailures       uint64
	SessionsVerified    uint64
	SessionsRejected    uint64
	SessionsRevoked     uint64
	HashDurationCount   uint64
	HashDurationTotalNs int64
	AuditPublished      map[string]uint64
	AuditProcessed      map[string]uint64
	AuditBatchCount     uint64
	AuditQueueDepth     int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	registerSuccesses   uint64
	registerDuplicates  uint64
	loginSuccesses      uint64
	loginFailures       uint64
	sessionsVerified    uint64
	sessionsRejected    uint64
	sessionsRevoked     uint64
	hashDurationCount   uint64
	hashDurationTotalNs int64

	mu              sync.Mutex
	auditPublished  map[string]uint64
	auditProcessed  map[string]uint64
	auditBatchCount uint64
	auditQueueDepth int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		auditPublished: make(map[string]uint64),
		auditProcessed: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	published := make(map[string]uint64, len(m.auditPublished))
	for k, v := range m.auditPublished {
		published[k] = v
	}
	processed := make(map[string]uint64, len(m.auditProcessed))
	for k, v := range m.auditProcessed {
		processed[k] = v
	}
	batches := m.auditBatchCount
	depth := m.auditQueueDepth
	m.mu.Unlock()

	return Snapshot{
		RegisterSuccesses:   atomic.LoadUint64(&m.registerSuccesses),
		RegisterDuplicates:  atomic.LoadUint64(&m.registerDuplicates),
		LoginSuccesses:      atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:       atomic.LoadUint64(&m.loginFailures),
		SessionsVerified:    atomic.LoadUint64(&m.sessionsVerified),
		SessionsRejected:    atomic.LoadUint64(&m.sessionsRejected),
		SessionsRevoked:     atomic.LoadUint64(&m.sessionsRevoked),
		HashDurationCount:   atomic.LoadUint64(&m.hashDurationCount),
		HashDurationTotalNs: atomic.LoadInt64(&m.hashDurationTotalNs),
		AuditPublished:      published,
		AuditProcessed:      processed,
		AuditBatchCount:     batches,
		AuditQueueDepth:     depth,
	}
}

// IncRegisterSuccess increments the successful-registration counter.
func (m *InMemoryRecorder) IncRegisterSuccess() {
	atomic.AddUint64(&m.registerSuccesses, 1)
}

// IncRegisterDuplicate increments the duplicate-email counter.
func (m *InMemoryRecorder) IncRegisterDuplicate() {
	atomic.AddUint64(&m.registerDuplicates, 1)
}

// IncLoginSuccess increments the successful-login counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	atomic.AddUint64(&m.loginSuccesses, 1)
}

// IncLoginFailure increments the failed-login counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncSessionVerified increments the verified-session counter.
func (m *InMemoryRecorder) IncSessionVerified() {
	atomic.AddUint64(&m.sessionsVerified, 1)
}

// IncSessionRejected increments the rejected-session counter.
func (m *InMemoryRecorder) IncSessionRejected() {
	atomic.AddUint64(&m.sessionsRejected, 1)
}

// IncSessionRevoked increments the revoked-session counter.
func (m *InMemoryRecorder) IncSessionRevoked() {
	atomic.AddUint64(&m.sessionsRevoked, 1)
}

// ObserveHashDuration records the duration of one password hash.
func (m *InMemoryRecorder) ObserveHashDuration(duration time.Duration) {
	atomic.AddUint64(&m.hashDurationCount, 1)
	atomic.AddInt64(&m.hashDurationTotalNs, duration.Nanoseconds())
}

// IncAuditEventPublished counts a published audit event by status.
func (m *InMemoryRecorder) IncAuditEventPublished(status string) {
	m.mu.Lock()
	m.auditPublished[status]++
	m.mu.Unlock()
}

// IncAuditEventProcessed counts a processed audit event by status.
func (m *InMemoryRecorder) IncAuditEventProcessed(status string) {
	m.mu.Lock()
	m.auditProcessed[status]++
	m.mu.Unlock()
}

// ObserveAuditBatchSize counts one processed batch.
func (m *InMemoryRecorder) ObserveAuditBatchSize(size int) {
	m.mu.Lock()
	m.auditBatchCount++
	m.mu.Unlock()
}

// SetAuditQueueDepth records the current stream backlog.
func (m *InMemoryRecorder) SetAuditQueueDepth(depth int64) {
	m.mu.Lock()
	m.auditQueueDepth = depth
	m.mu.Unlock()
}
