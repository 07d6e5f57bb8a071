package monitor

import (
	"sync"

	"github.com/google/uuid"
)

// LeaseMap hands out exclusive per-indicator execution leases so two
// overlapping scheduler ticks can never double-dispatch the same
// indicator. Leases carry an ownership token: only the holder of the
// token returned by TryAcquire can release the lease, which protects
// against a stale release after a contended re-acquire.
type LeaseMap struct {
	mu     sync.Mutex
	leases map[uint]string // indicator ID → ownership token
}

// NewLeaseMap creates an empty lease map.
func NewLeaseMap() *LeaseMap {
	return &LeaseMap{leases: make(map[uint]string)}
}

// TryAcquire attempts to claim the lease for an indicator. Returns the
// ownership token and true on success, or "" and false if the lease is
// already held. Atomic with respect to concurrent ticks.
func (m *LeaseMap) TryAcquire(indicatorID uint) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.leases[indicatorID]; held {
		return "", false
	}
	token := uuid.NewString()
	m.leases[indicatorID] = token
	return token, true
}

// Release frees the lease if the token matches the current holder.
// Returns false for a stale or unknown token. Idempotent: releasing an
// already-released lease is a no-op.
func (m *LeaseMap) Release(indicatorID uint, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, held := m.leases[indicatorID]
	if !held || current != token {
		return false
	}
	delete(m.leases, indicatorID)
	return true
}

// Held reports whether any lease is currently held for the indicator.
func (m *LeaseMap) Held(indicatorID uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.leases[indicatorID]
	return held
}

// Len returns the number of leases currently held.
func (m *LeaseMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leases)
}
