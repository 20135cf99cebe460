package workoutlog

import (
	"context"
	"sync"

	"github.com/fitlogapp/fitlog/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// Manager owns one tracker per authenticated user session. Trackers are
// created on first use and torn down (subscription released) when the
// session ends or the manager shuts down.
type Manager struct {
	store   Store
	metrics *metrics.Manager

	mu       sync.Mutex
	trackers map[string]*Tracker
}

func NewManager(store Store, metricsManager *metrics.Manager) *Manager {
	return &Manager{
		store:    store,
		metrics:  metricsManager,
		trackers: make(map[string]*Tracker),
	}
}

// ForUser returns the user's tracker, constructing it on first call.
func (m *Manager) ForUser(ctx context.Context, userID string) *Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.trackers[userID]; ok {
		return t
	}

	t := NewTracker(ctx, m.store, userID, m.metrics)
	m.trackers[userID] = t
	m.metrics.GaugeActiveTrackers.Set(float64(len(m.trackers)))

	log.Debugf("tracker created for user [%s], active trackers: %d", userID, len(m.trackers))
	return t
}

// Release closes and removes the user's tracker, if present.
func (m *Manager) Release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trackers[userID]
	if !ok {
		return
	}

	t.Close()
	delete(m.trackers, userID)
	m.metrics.GaugeActiveTrackers.Set(float64(len(m.trackers)))

	log.Debugf("tracker released for user [%s], active trackers: %d", userID, len(m.trackers))
}

// CloseAll releases every live tracker. Used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, t := range m.trackers {
		t.Close()
		delete(m.trackers, userID)
	}
	m.metrics.GaugeActiveTrackers.Set(0)
}
