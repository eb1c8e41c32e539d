// Package buzzer implements the GPIO-driven buzzer annunciator: a narrow
// hardware driver with a fault budget, and a 1 Hz controller loop that
// derives the desired sound state from the alert store and mute state.
package buzzer

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// Driver is the hardware line-level contract: on() and off() set the GPIO
// pin, each either succeeding or failing outright.
type Driver interface {
	On() error
	Off() error
}

// GPIODriver drives a single GPIO output line via go-rpio. The line handle
// is acquired once on first use and cached; a failed acquisition is
// retried on the next call rather than cached as permanently broken —
// only the controller's fault budget decides when to give up for good.
type GPIODriver struct {
	mu     sync.Mutex
	pinNum int
	pin    rpio.Pin
	opened bool
}

// NewGPIODriver creates a driver for the given BCM GPIO pin number. It does
// not touch hardware until the first On()/Off() call.
func NewGPIODriver(pinNum int) *GPIODriver {
	return &GPIODriver{pinNum: pinNum}
}

// On drives the line high.
func (d *GPIODriver) On() error {
	return d.set(rpio.High)
}

// Off drives the line low.
func (d *GPIODriver) Off() error {
	return d.set(rpio.Low)
}

func (d *GPIODriver) set(state rpio.State) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	pin, err := d.acquireLocked()
	if err != nil {
		return err
	}
	pin.Write(state)
	return nil
}

func (d *GPIODriver) acquireLocked() (rpio.Pin, error) {
	if d.opened {
		return d.pin, nil
	}
	if err := rpio.Open(); err != nil {
		return 0, fmt.Errorf("acquiring gpio line %d: %w", d.pinNum, err)
	}
	pin := rpio.Pin(d.pinNum)
	pin.Output()
	d.pin = pin
	d.opened = true
	return pin, nil
}

// Close releases the underlying GPIO memory mapping, if it was acquired.
func (d *GPIODriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return nil
	}
	d.opened = false
	return rpio.Close()
}
