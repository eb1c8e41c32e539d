package buzzer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coldwatch/hmi-core/daemon/constants"
	"github.com/coldwatch/hmi-core/daemon/dto"
	"github.com/coldwatch/hmi-core/daemon/logger"
)

// StoreReader is satisfied by the alert store. The controller polls it
// rather than being called by it, breaking the store/mute/buzzer
// dependency cycle.
type StoreReader interface {
	IsEmpty() bool
}

// MuteReader is satisfied by the mute controller.
type MuteReader interface {
	Status() dto.MuteStatus
}

// Controller runs the 1 Hz buzzer loop: it derives the desired sound state
// from the alert store and mute state, and drives the GPIO driver
// accordingly, blinking at 1 Hz while sounding.
type Controller struct {
	driver  Driver
	store   StoreReader
	mute    MuteReader
	enabled bool

	faults   atomic.Int32
	disabled atomic.Bool
	blinkOn  bool
	mu       sync.Mutex // guards blinkOn
}

// New creates a buzzer controller. enabled mirrors config.buzzer_enabled;
// when false the controller still runs its loop (to keep the GPIO line
// deterministically off) but never requests Sounding.
func New(driver Driver, store StoreReader, mute MuteReader, enabled bool) *Controller {
	return &Controller{driver: driver, store: store, mute: mute, enabled: enabled}
}

// Run blocks, ticking at constants.BuzzerTickInterval until ctx is
// canceled. On exit it unconditionally forces the line off.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(constants.BuzzerTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.forceOff()
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *Controller) tick() {
	if c.disabled.Load() {
		return
	}

	sounding := c.enabled && c.mute != nil && c.store != nil &&
		!c.store.IsEmpty() && !c.mute.Status().Muted

	if !sounding {
		c.mu.Lock()
		c.blinkOn = false
		c.mu.Unlock()
		c.drive(false)
		return
	}

	c.mu.Lock()
	c.blinkOn = !c.blinkOn
	on := c.blinkOn
	c.mu.Unlock()
	c.drive(on)
}

func (c *Controller) drive(on bool) {
	var err error
	if on {
		err = c.driver.On()
	} else {
		err = c.driver.Off()
	}

	if err == nil {
		c.faults.Store(0)
		return
	}

	n := c.faults.Add(1)
	logger.Warning("buzzer: gpio call failed (%d/%d consecutive): %v", n, constants.BuzzerFaultBudget, err)
	if int(n) >= constants.BuzzerFaultBudget {
		c.disabled.Store(true)
		logger.Error("buzzer: fault budget exhausted, disabling for process lifetime")
	}
}

func (c *Controller) forceOff() {
	if err := c.driver.Off(); err != nil {
		logger.Warning("buzzer: final off() on shutdown failed: %v", err)
	}
}

// Disabled reports whether the controller has permanently latched off
// after exhausting its fault budget.
func (c *Controller) Disabled() bool {
	return c.disabled.Load()
}
