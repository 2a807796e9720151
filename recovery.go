package gfx

import (
	"fmt"
	"log/slog"
)

// DeviceState is the recovery state of a Device.
type DeviceState uint8

// Device states.
const (
	// Ready accepts binds and draws.
	Ready DeviceState = iota

	// Recovering rejects binds and draws with ErrDeviceLost until Recover
	// succeeds.
	Recovering
)

// String returns the state name.
func (s DeviceState) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Recovering:
		return "Recovering"
	default:
		return fmt.Sprintf("DeviceState(%d)", uint8(s))
	}
}

// State returns the current recovery state.
func (d *Device) State() DeviceState {
	return d.state
}

// BeginRecovery marks the device lost. It is entered automatically when an
// adapter call fails with ErrDeviceLost.
func (d *Device) BeginRecovery() {
	if d.state == Recovering {
		return
	}
	d.state = Recovering
	Logger().Warn("gfx: device lost, recovering", slog.String("backend", d.adapter.Name()))
}

// Recover rebuilds the adapter's derived native objects, schedules every
// live uniform for re-upload and re-applies the retained context in full.
// The device returns to Ready only if all of that succeeds.
func (d *Device) Recover() error {
	if d.state != Recovering {
		return ErrNotRecovering
	}

	if err := d.adapter.Reset(); err != nil {
		return fmt.Errorf("gfx: recover: reset adapter: %w", err)
	}
	for _, u := range d.uniforms.All() {
		u.dirty = true
	}
	if err := d.bind(d.active.Clone(), true); err != nil {
		return fmt.Errorf("gfx: recover: %w", err)
	}

	d.state = Ready
	Logger().Info("gfx: device recovered", slog.String("backend", d.adapter.Name()))
	return nil
}
