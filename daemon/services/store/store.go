// Package store implements the in-memory alert store: the single source of
// truth for active alerts, shared by every source loop and the command
// surface.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/coldwatch/hmi-core/daemon/constants"
	"github.com/coldwatch/hmi-core/daemon/domain"
	"github.com/coldwatch/hmi-core/daemon/dto"
	"github.com/coldwatch/hmi-core/daemon/logger"
)

// MuteClearer is satisfied by the mute controller. The store calls
// ForceClear on every successful upsert so a newly raised alert always
// cuts through an active mute (invariant I3).
type MuteClearer interface {
	ForceClear()
}

// Store holds the current set of active alerts keyed by id. All mutating
// operations are serialized by mu; a poisoned lock (a panic while the lock
// was held) is recovered so a single bad update cannot wedge the process —
// the critical section either completes or the panic is contained to its
// own goroutine.
type Store struct {
	mu     sync.Mutex
	alerts map[string]dto.Alert

	hub  *domain.EventBus
	mute MuteClearer
}

// New creates an empty alert store.
func New(hub *domain.EventBus, mute MuteClearer) *Store {
	return &Store{
		alerts: make(map[string]dto.Alert),
		hub:    hub,
		mute:   mute,
	}
}

// Upsert inserts a new alert or overwrites an existing one with the same
// id. Every call — including one that overwrites an id with identical
// fields — publishes alerts://added and force-clears the mute (invariant
// I3): the number of added events for a given id equals the number of
// Upsert calls with that id (spec §8). The returned bool reports whether
// the write itself completed; it is false only if the critical section
// panicked and was recovered.
func (s *Store) Upsert(alert dto.Alert) (ok bool) {
	ok = s.upsertLocked(alert)
	if !ok {
		return false
	}

	if s.mute != nil {
		s.mute.ForceClear()
	}
	if s.hub != nil {
		domain.Publish(s.hub, constants.TopicAlertAdded, alert)
	}
	return true
}

// upsertLocked runs the critical section of Upsert under the store's lock.
// A panic here is recovered so one bad update cannot leave the mutex held
// forever; the lock is always released before this returns.
func (s *Store) upsertLocked(alert dto.Alert) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("store: recovered panic during upsert: %v", r)
			ok = false
		}
	}()

	s.alerts[alert.ID] = alert
	return true
}

// Remove deletes an alert by id. Returns true if an alert was actually
// removed (invariant I2: removing an unknown id is a no-op, not an error).
func (s *Store) Remove(id string) (removed bool) {
	removed = s.removeLocked(id)
	if removed && s.hub != nil {
		domain.Publish(s.hub, constants.TopicAlertRemoved, dto.AlertRemoved{ID: id})
	}
	return removed
}

func (s *Store) removeLocked(id string) (removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("store: recovered panic during remove: %v", r)
			removed = false
		}
	}()

	if _, ok := s.alerts[id]; ok {
		delete(s.alerts, id)
		return true
	}
	return false
}

// Snapshot returns a defensive copy of every currently stored alert,
// ordered newest-first by date_time, with id ascending as the tiebreak
// (spec §3/§4.1). An alert whose DateTime fails to parse sorts as though
// it were the oldest, rather than panicking or reordering unpredictably.
func (s *Store) Snapshot() []dto.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]dto.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, erri := time.Parse(constants.AlertTimeLayout, out[i].DateTime)
		if erri != nil {
			ti = time.Time{}
		}
		tj, errj := time.Parse(constants.AlertTimeLayout, out[j].DateTime)
		if errj != nil {
			tj = time.Time{}
		}
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IsEmpty reports whether the store currently holds no alerts.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts) == 0
}
