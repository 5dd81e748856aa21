// Package core provides the decision tier of the vehicle commander: the arming
// state machine, flight-mode selector, HIL switch and navigation/failsafe
// resolver, plus the Commander that owns the shared status record.
//
// The transition functions are pure over the records they are handed. The
// Commander wraps them in a short critical section and talks to the pluggable
// collaborators declared here only after the lock is released.
//go:generate go test ./... -race
package core

import (
	"context"
	"time"

	"github.com/comalice/commanderx/internal/primitives"
)

// DiagnosticSink receives operator-facing messages. Emit must not block and
// must swallow its own delivery failures.
type DiagnosticSink interface {
	Emit(d primitives.Diagnostic)
}

// Devices enumerates and blocks physical sensor devices for HIL.
type Devices interface {
	// Blockable lists device paths under the device root. An error means the
	// root itself could not be listed.
	Blockable() ([]string, error)
	// Block stops a device from publishing sensor data.
	Block(device string) error
}

type EventSource interface {
	Events() <-chan primitives.Event
}

type StatusPublisher interface {
	Publish(ctx context.Context, snapshot StatusSnapshot) error
	Close() error
}

type Persister interface {
	Save(ctx context.Context, snapshot StatusSnapshot) error
	Load(ctx context.Context, vehicleID string) (StatusSnapshot, error)
}

type Visualizer interface {
	ExportDOT(current primitives.ArmingState) string
	ExportJSON() ([]byte, error)
}

// StatusSnapshot is the serializable view of the commander after a change.
type StatusSnapshot struct {
	VehicleID string                   `json:"vehicleID" yaml:"vehicleID"`
	Session   string                   `json:"session" yaml:"session"`
	Status    primitives.VehicleStatus `json:"status" yaml:"status"`
	Safety    primitives.SafetyStatus  `json:"safety" yaml:"safety"`
	Armed     primitives.ActuatorArmed `json:"armed" yaml:"armed"`
	Reason    string                   `json:"reason" yaml:"reason"`
	Timestamp time.Time                `json:"timestamp" yaml:"timestamp"`
}
