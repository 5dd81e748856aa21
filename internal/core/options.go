// Package core provides the decision tier of the vehicle commander.
// Options for configuring Commander instances.
package core

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option applies configuration to Commander via functional options pattern.
type Option func(*Commander)

// WithLogger configures the Commander with a named logger.
func WithLogger(l hclog.Logger) Option {
	return func(c *Commander) {
		c.l = l
	}
}

// WithDiagnosticSink configures where operator-facing messages go.
func WithDiagnosticSink(s DiagnosticSink) Option {
	return func(c *Commander) {
		c.sink = s
	}
}

// WithDevices configures the sensor devices blocked on HIL entry.
func WithDevices(d Devices) Option {
	return func(c *Commander) {
		c.devices = d
	}
}

// WithPublisher configures the Commander with a custom StatusPublisher.
func WithPublisher(p StatusPublisher) Option {
	return func(c *Commander) {
		c.publisher = p
	}
}

// WithPersister configures the Commander with a custom Persister.
func WithPersister(p Persister) Option {
	return func(c *Commander) {
		c.persister = p
	}
}

// WithVisualizer configures the Commander with a custom Visualizer.
func WithVisualizer(v Visualizer) Option {
	return func(c *Commander) {
		c.visualizer = v
	}
}

// WithVehicleID names the vehicle in snapshots.
func WithVehicleID(id string) Option {
	return func(c *Commander) {
		c.vehicleID = id
	}
}

// WithRotaryWing sets the airframe class used by mode preconditions.
func WithRotaryWing(rotary bool) Option {
	return func(c *Commander) {
		c.status.IsRotaryWing = rotary
	}
}

// WithClock replaces the monotonic since-boot clock.
func WithClock(since func() time.Duration) Option {
	return func(c *Commander) {
		c.since = since
	}
}

// WithAutoStandby requests STANDBY as soon as sensors initialize while the
// vehicle is still in INIT.
func WithAutoStandby(enabled bool) Option {
	return func(c *Commander) {
		c.autoStandby = enabled
	}
}
