package core

import (
	"fmt"

	"github.com/comalice/commanderx/internal/primitives"
)

// armingTransitions is indexed [requested][current]. A true entry is only a
// precondition; armingOverrides still run afterwards.
var armingTransitions = [primitives.ArmingStateCount][primitives.ArmingStateCount]bool{
	//                          INIT,  STANDBY, ARMED, ARMED_ERROR, STANDBY_ERROR, REBOOT, IN_AIR_RESTORE
	/* INIT */ {true, true, false, false, false, false, false},
	/* STANDBY */ {true, true, true, true, false, false, false},
	/* ARMED */ {false, true, true, false, false, false, true},
	/* ARMED_ERROR */ {false, false, true, true, false, false, false},
	/* STANDBY_ERROR */ {true, true, false, true, true, false, false},
	/* REBOOT */ {true, true, false, false, true, true, true},
	/* IN_AIR_RESTORE */ {false, false, false, false, false, false, false}, // not implemented
}

// ArmingTransitionLegal reports the raw table entry for current -> requested.
func ArmingTransitionLegal(requested, current primitives.ArmingState) bool {
	if !requested.Valid() || !current.Valid() {
		return false
	}
	return armingTransitions[requested][current]
}

// armingCheck carries one request through the override rules.
type armingCheck struct {
	status    *primitives.VehicleStatus
	safety    primitives.SafetyStatus
	requested primitives.ArmingState
	valid     bool
	diags     []primitives.Diagnostic
}

type armingOverride struct {
	name  string
	apply func(c *armingCheck)
}

// armingOverrides run in order after the table lookup; a later rule wins over
// an earlier one and over the table.
var armingOverrides = []armingOverride{
	{"safety switch before arming", requireSafetyOff},
	{"armed error keeps error on standby", redirectArmedErrorStandby},
	{"hil always returns to standby", allowHILStandby},
	{"sensors initialized for standby", requireSensorsForStandby},
}

// requireSafetyOff applies only to table-legal requests. Coming from in-air
// restore or running in HIL skips the check.
func requireSafetyOff(c *armingCheck) {
	if !c.valid || c.requested != primitives.ArmingArmed {
		return
	}
	if c.status.ArmingState == primitives.ArmingInAirRestore || c.status.HILState == primitives.HILOn {
		return
	}
	if c.safety.Engaged() {
		c.diags = append(c.diags, primitives.Diagnostic{
			Severity: primitives.SeverityCritical,
			Text:     "#audio: NOT ARMING: Press safety switch first.",
		})
		c.valid = false
	}
}

func redirectArmedErrorStandby(c *armingCheck) {
	if c.valid && c.requested == primitives.ArmingStandby && c.status.ArmingState == primitives.ArmingArmedError {
		c.requested = primitives.ArmingStandbyError
	}
}

func allowHILStandby(c *armingCheck) {
	if c.status.HILState == primitives.HILOn && c.requested == primitives.ArmingStandby {
		c.valid = true
	}
}

func requireSensorsForStandby(c *armingCheck) {
	if c.requested == primitives.ArmingStandby && !c.status.Conditions.SystemSensorsInitialized {
		c.valid = false
	}
}

// ArmingTransition validates and applies an arming state request. On success
// status and armed are updated together; on denial neither is touched. The
// caller must hold the status lock and emit the returned diagnostics after
// releasing it.
func ArmingTransition(status *primitives.VehicleStatus, safety primitives.SafetyStatus, requested primitives.ArmingState, armed *primitives.ActuatorArmed) (primitives.TransitionResult, []primitives.Diagnostic) {
	if requested == status.ArmingState {
		return primitives.TransitionNotChanged, nil
	}
	if !requested.Valid() || !status.ArmingState.Valid() {
		return primitives.TransitionDenied, []primitives.Diagnostic{deniedArming(status.ArmingState, requested)}
	}

	c := &armingCheck{
		status:    status,
		safety:    safety,
		requested: requested,
		valid:     armingTransitions[requested][status.ArmingState],
	}
	for _, o := range armingOverrides {
		o.apply(c)
	}

	if !c.valid {
		return primitives.TransitionDenied, append(c.diags, deniedArming(status.ArmingState, c.requested))
	}

	armed.Lockdown = status.HILState == primitives.HILOn
	armed.Armed = c.requested.Armed()
	armed.ReadyToArm = c.requested == primitives.ArmingArmed || c.requested == primitives.ArmingStandby
	status.ArmingState = c.requested
	return primitives.TransitionChanged, c.diags
}

func deniedArming(from, to primitives.ArmingState) primitives.Diagnostic {
	return primitives.Diagnostic{
		Severity: primitives.SeverityCritical,
		Text:     fmt.Sprintf("Invalid arming transition from %s to %s", from, to),
	}
}

// IsSafe reports whether physical actuator output is currently impossible:
// disarmed, armed under lockdown, or held by an engaged safety switch.
func IsSafe(safety primitives.SafetyStatus, armed primitives.ActuatorArmed) bool {
	return !armed.Armed || armed.Lockdown || safety.Engaged()
}
