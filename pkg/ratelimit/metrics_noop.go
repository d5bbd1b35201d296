package ratelimit

import "time"

// NoOpMetrics implements RateLimitMetrics and discards everything.
//
// Used in tests and when metrics are disabled.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a new NoOpMetrics instance.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

func (m *NoOpMetrics) RecordAllowed(class string)                               {}
func (m *NoOpMetrics) RecordDenied(class string)                                {}
func (m *NoOpMetrics) RecordCheckDuration(class string, duration time.Duration) {}
func (m *NoOpMetrics) SetActiveKeys(store string, count int)                    {}
func (m *NoOpMetrics) RecordCircuitState(name, state string)                    {}
func (m *NoOpMetrics) RecordEviction(store string, count int)                   {}
func (m *NoOpMetrics) RecordActiveEviction(store string, count int)             {}
func (m *NoOpMetrics) RecordStoreFailover(store string)                         {}
