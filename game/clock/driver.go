package clock

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidScale is returned by Initialize for a scale that is not > 0.
	ErrInvalidScale = errors.New("clock: time scale must be greater than zero")
	// ErrNotInitialized is returned by Now before Initialize has run.
	ErrNotInitialized = errors.New("clock: driver not initialized")
)

// Source supplies wall-clock readings. Tests substitute a fake.
type Source interface {
	Now() time.Time
}

type realSource struct{}

func (realSource) Now() time.Time { return time.Now() }

// Driver maps elapsed real time onto a GameTime.
//
// Driver is not safe for concurrent use: Now both reads and advances the
// clock, so all calls must come from one timeline (the room tick loop).
type Driver struct {
	src         Source
	scale       float64
	lastSample  time.Time
	current     GameTime
	initialized bool
}

// NewDriver returns an uninitialized driver reading from src. A nil src
// uses the system clock.
func NewDriver(src Source) *Driver {
	if src == nil {
		src = realSource{}
	}
	return &Driver{src: src}
}

// Initialize sets the time scale and starting time and takes the first
// real-time sample. It must be called once before Now.
func (d *Driver) Initialize(scale float64, start GameTime) error {
	if !(scale > 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidScale, scale)
	}
	d.scale = scale
	d.current = start
	d.lastSample = d.src.Now()
	d.initialized = true
	return nil
}

// Now advances the game time by the real time elapsed since the previous
// call, multiplied by the scale, and returns the result.
func (d *Driver) Now() (GameTime, error) {
	if !d.initialized {
		return GameTime{}, ErrNotInitialized
	}
	now := d.src.Now()
	delta := now.Sub(d.lastSample).Seconds()
	d.current.AddRealTime(delta * d.scale)
	d.lastSample = now
	return d.current, nil
}

// Current returns the game time as of the last Now call without advancing.
func (d *Driver) Current() GameTime { return d.current }

// Scale returns the configured time scale.
func (d *Driver) Scale() float64 { return d.scale }

// FastForwardTo jumps to target if it is strictly later than the current
// time. Earlier or equal targets are ignored; the clock never runs backward.
func (d *Driver) FastForwardTo(target GameTime) bool {
	if target.BeforeOrEqual(d.current) {
		return false
	}
	d.current = target
	return true
}

// IsCurrentWithinRange applies IsWithinRange to the current time.
func (d *Driver) IsCurrentWithinRange(min, max GameTime) bool {
	return IsWithinRange(d.current, min, max)
}
