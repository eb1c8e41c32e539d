// Package mute implements the mute timer: a small state machine with two
// states, Inactive and Active{expires_at}, that suppresses the buzzer
// without suppressing any UI event.
package mute

import (
	"sync"
	"time"

	"github.com/coldwatch/hmi-core/daemon/constants"
	"github.com/coldwatch/hmi-core/daemon/domain"
	"github.com/coldwatch/hmi-core/daemon/dto"
	"github.com/coldwatch/hmi-core/daemon/logger"
)

// Controller tracks the current mute state and emits alerts://mute_changed
// on every transition: toggle, tick-driven expiry, and force_clear.
type Controller struct {
	mu        sync.Mutex
	active    bool
	expiresAt time.Time

	duration time.Duration
	hub      *domain.EventBus
}

// New creates a mute controller with the given auto-expiry duration.
func New(duration time.Duration, hub *domain.EventBus) *Controller {
	return &Controller{duration: duration, hub: hub}
}

// Status returns the current mute state.
func (c *Controller) Status() dto.MuteStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() dto.MuteStatus {
	if !c.active {
		return dto.MuteStatus{Muted: false}
	}
	expires := c.expiresAt
	return dto.MuteStatus{Muted: true, ExpiresAt: &expires}
}

// Toggle flips Inactive to Active{now+duration}, or Active to Inactive.
// Returns the new status after the transition and publishes
// alerts://mute_changed.
func (c *Controller) Toggle() dto.MuteStatus {
	status := c.toggleLocked()
	c.publish(status)
	return status
}

func (c *Controller) toggleLocked() (status dto.MuteStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("mute: recovered panic during toggle: %v", r)
			status = c.statusLocked()
		}
	}()

	if c.active {
		c.active = false
	} else {
		c.active = true
		c.expiresAt = time.Now().Add(c.duration)
	}
	return c.statusLocked()
}

// Tick checks for auto-expiry. Called periodically (MuteTickInterval) by
// the daemon's tick loop. If the mute has expired since the last tick, it
// transitions to Inactive and publishes alerts://mute_changed.
func (c *Controller) Tick() {
	status, expired := c.tickLocked()
	if expired {
		c.publish(status)
	}
}

func (c *Controller) tickLocked() (status dto.MuteStatus, expired bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("mute: recovered panic during tick: %v", r)
			expired = false
		}
	}()

	if c.active && !time.Now().Before(c.expiresAt) {
		c.active = false
		return c.statusLocked(), true
	}
	return dto.MuteStatus{}, false
}

// ForceClear transitions to Inactive unconditionally. Called by the alert
// store on every successful upsert so a newly raised alert always cuts
// through an active mute. A no-op (and does not publish) if already
// Inactive.
func (c *Controller) ForceClear() {
	status, cleared := c.forceClearLocked()
	if cleared {
		c.publish(status)
	}
}

func (c *Controller) forceClearLocked() (status dto.MuteStatus, cleared bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("mute: recovered panic during force_clear: %v", r)
			cleared = false
		}
	}()

	if !c.active {
		return dto.MuteStatus{}, false
	}
	c.active = false
	return c.statusLocked(), true
}

func (c *Controller) publish(status dto.MuteStatus) {
	if c.hub != nil {
		domain.Publish(c.hub, constants.TopicMuteChanged, status)
	}
}
