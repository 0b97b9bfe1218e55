package caching

import "time"

// SetClock replaces the store clock in tests.
func SetClock(m *MemoryStore, now func() time.Time) {
	m.now = now
}
