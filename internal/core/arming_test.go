package core

import (
	"strings"
	"testing"

	"github.com/comalice/commanderx/internal/primitives"
)

func readyStatus(s primitives.ArmingState) primitives.VehicleStatus {
	return primitives.VehicleStatus{
		ArmingState: s,
		Conditions:  primitives.Conditions{SystemSensorsInitialized: true},
	}
}

func TestArmingTransition_SameStateNotChanged(t *testing.T) {
	for _, s := range primitives.AllArmingStates() {
		for _, sensors := range []bool{true, false} {
			status := primitives.VehicleStatus{ArmingState: s}
			status.Conditions.SystemSensorsInitialized = sensors
			before := status
			armed := primitives.ActuatorArmed{Lockdown: true}

			res, diags := ArmingTransition(&status, primitives.SafetyStatus{SafetySwitchAvailable: true}, s, &armed)
			if res != primitives.TransitionNotChanged {
				t.Errorf("%v -> %v = %v, want NOT_CHANGED", s, s, res)
			}
			if status != before || armed != (primitives.ActuatorArmed{Lockdown: true}) {
				t.Errorf("%v -> %v mutated state", s, s)
			}
			if len(diags) != 0 {
				t.Errorf("%v -> %v emitted %v", s, s, diags)
			}
		}
	}
}

func TestArmingTransition_TableDenials(t *testing.T) {
	safety := primitives.SafetyStatus{}
	for _, from := range primitives.AllArmingStates() {
		for _, to := range primitives.AllArmingStates() {
			if from == to || armingTransitions[to][from] {
				continue
			}
			status := readyStatus(from)
			var armed primitives.ActuatorArmed
			res, diags := ArmingTransition(&status, safety, to, &armed)
			if res != primitives.TransitionDenied {
				t.Errorf("%v -> %v = %v, want DENIED", from, to, res)
			}
			if status.ArmingState != from {
				t.Errorf("%v -> %v changed state to %v", from, to, status.ArmingState)
			}
			if armed != (primitives.ActuatorArmed{}) {
				t.Errorf("%v -> %v touched armed: %+v", from, to, armed)
			}
			want := "Invalid arming transition from " + from.String() + " to " + to.String()
			if len(diags) == 0 || diags[len(diags)-1].Text != want {
				t.Errorf("%v -> %v diagnostics = %v, want %q", from, to, diags, want)
			}
		}
	}
}

func TestArmingTransition_InAirRestoreNeverTarget(t *testing.T) {
	for _, from := range primitives.AllArmingStates() {
		if from == primitives.ArmingInAirRestore {
			continue
		}
		status := readyStatus(from)
		status.HILState = primitives.HILOn
		var armed primitives.ActuatorArmed
		if res, _ := ArmingTransition(&status, primitives.SafetyStatus{}, primitives.ArmingInAirRestore, &armed); res != primitives.TransitionDenied {
			t.Errorf("%v -> IN_AIR_RESTORE = %v, want DENIED", from, res)
		}
	}
}

func TestArmingTransition_SafetySwitch(t *testing.T) {
	tests := []struct {
		name   string
		from   primitives.ArmingState
		hil    primitives.HILState
		safety primitives.SafetyStatus
		want   primitives.TransitionResult
	}{
		{"switch engaged", primitives.ArmingStandby, primitives.HILOff, primitives.SafetyStatus{SafetySwitchAvailable: true}, primitives.TransitionDenied},
		{"switch off", primitives.ArmingStandby, primitives.HILOff, primitives.SafetyStatus{SafetySwitchAvailable: true, SafetyOff: true}, primitives.TransitionChanged},
		{"no switch", primitives.ArmingStandby, primitives.HILOff, primitives.SafetyStatus{}, primitives.TransitionChanged},
		{"hil bypass", primitives.ArmingStandby, primitives.HILOn, primitives.SafetyStatus{SafetySwitchAvailable: true}, primitives.TransitionChanged},
		{"in air restore bypass", primitives.ArmingInAirRestore, primitives.HILOff, primitives.SafetyStatus{SafetySwitchAvailable: true}, primitives.TransitionChanged},
		{"init illegal", primitives.ArmingInit, primitives.HILOff, primitives.SafetyStatus{}, primitives.TransitionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := readyStatus(tt.from)
			status.HILState = tt.hil
			var armed primitives.ActuatorArmed
			res, diags := ArmingTransition(&status, tt.safety, primitives.ArmingArmed, &armed)
			if res != tt.want {
				t.Fatalf("result = %v, want %v (diags %v)", res, tt.want, diags)
			}
			if res == primitives.TransitionChanged {
				if !armed.Armed || !armed.ReadyToArm {
					t.Errorf("armed = %+v, want armed and ready", armed)
				}
				if armed.Lockdown != (tt.hil == primitives.HILOn) {
					t.Errorf("lockdown = %v with hil %v", armed.Lockdown, tt.hil)
				}
				if status.ArmingState != primitives.ArmingArmed {
					t.Errorf("state = %v, want ARMED", status.ArmingState)
				}
			}
			if tt.name == "switch engaged" {
				if len(diags) != 2 || !strings.Contains(diags[0].Text, "Press safety switch first") {
					t.Errorf("diagnostics = %v", diags)
				}
			}
		})
	}
}

func TestArmingTransition_ArmedErrorStandbyRedirect(t *testing.T) {
	status := readyStatus(primitives.ArmingArmedError)
	armed := primitives.ActuatorArmed{Armed: true}
	res, _ := ArmingTransition(&status, primitives.SafetyStatus{}, primitives.ArmingStandby, &armed)
	if res != primitives.TransitionChanged {
		t.Fatalf("result = %v, want CHANGED", res)
	}
	if status.ArmingState != primitives.ArmingStandbyError {
		t.Errorf("state = %v, want STANDBY_ERROR", status.ArmingState)
	}
	if armed.Armed || armed.ReadyToArm {
		t.Errorf("armed = %+v, want disarmed and not ready", armed)
	}

	// The redirect target does not need initialized sensors.
	status = primitives.VehicleStatus{ArmingState: primitives.ArmingArmedError}
	if res, _ := ArmingTransition(&status, primitives.SafetyStatus{}, primitives.ArmingStandby, &armed); res != primitives.TransitionChanged {
		t.Errorf("uninitialized redirect = %v, want CHANGED", res)
	}
}

func TestArmingTransition_StandbyNeedsSensors(t *testing.T) {
	for _, from := range []primitives.ArmingState{primitives.ArmingInit, primitives.ArmingArmed, primitives.ArmingStandbyError} {
		for _, hil := range []primitives.HILState{primitives.HILOff, primitives.HILOn} {
			status := primitives.VehicleStatus{ArmingState: from, HILState: hil}
			var armed primitives.ActuatorArmed
			res, _ := ArmingTransition(&status, primitives.SafetyStatus{}, primitives.ArmingStandby, &armed)
			if res != primitives.TransitionDenied {
				t.Errorf("%v -> STANDBY hil=%v without sensors = %v, want DENIED", from, hil, res)
			}
		}
	}
}

func TestArmingTransition_HILForcesStandby(t *testing.T) {
	// STANDBY_ERROR -> STANDBY is illegal in the table but allowed in HIL.
	status := readyStatus(primitives.ArmingStandbyError)
	var armed primitives.ActuatorArmed
	if res, _ := ArmingTransition(&status, primitives.SafetyStatus{}, primitives.ArmingStandby, &armed); res != primitives.TransitionDenied {
		t.Fatalf("without HIL = %v, want DENIED", res)
	}

	status.HILState = primitives.HILOn
	res, _ := ArmingTransition(&status, primitives.SafetyStatus{}, primitives.ArmingStandby, &armed)
	if res != primitives.TransitionChanged {
		t.Fatalf("with HIL = %v, want CHANGED", res)
	}
	if !armed.Lockdown || armed.Armed || !armed.ReadyToArm {
		t.Errorf("armed = %+v, want lockdown, disarmed, ready", armed)
	}
}

func TestArmingTransition_ArmedInvariants(t *testing.T) {
	for _, from := range primitives.AllArmingStates() {
		for _, to := range primitives.AllArmingStates() {
			status := readyStatus(from)
			var armed primitives.ActuatorArmed
			res, _ := ArmingTransition(&status, primitives.SafetyStatus{}, to, &armed)
			if res != primitives.TransitionChanged {
				continue
			}
			s := status.ArmingState
			if armed.Armed != (s == primitives.ArmingArmed || s == primitives.ArmingArmedError) {
				t.Errorf("%v -> %v: armed=%v in %v", from, to, armed.Armed, s)
			}
			if armed.ReadyToArm != (s == primitives.ArmingArmed || s == primitives.ArmingStandby) {
				t.Errorf("%v -> %v: ready_to_arm=%v in %v", from, to, armed.ReadyToArm, s)
			}
		}
	}
}

func TestArmingTransition_InvalidInput(t *testing.T) {
	status := readyStatus(primitives.ArmingStandby)
	var armed primitives.ActuatorArmed
	res, diags := ArmingTransition(&status, primitives.SafetyStatus{}, primitives.ArmingState(200), &armed)
	if res != primitives.TransitionDenied || len(diags) != 1 {
		t.Errorf("out of range = %v %v, want DENIED with one diagnostic", res, diags)
	}
	if status.ArmingState != primitives.ArmingStandby {
		t.Error("out of range request changed state")
	}
	if ArmingTransitionLegal(primitives.ArmingState(200), primitives.ArmingInit) {
		t.Error("out of range should never be legal")
	}
}

func TestIsSafe(t *testing.T) {
	tests := []struct {
		name   string
		safety primitives.SafetyStatus
		armed  primitives.ActuatorArmed
		want   bool
	}{
		{"disarmed", primitives.SafetyStatus{}, primitives.ActuatorArmed{}, true},
		{"armed", primitives.SafetyStatus{}, primitives.ActuatorArmed{Armed: true}, false},
		{"armed lockdown", primitives.SafetyStatus{}, primitives.ActuatorArmed{Armed: true, Lockdown: true}, true},
		{"armed switch engaged", primitives.SafetyStatus{SafetySwitchAvailable: true}, primitives.ActuatorArmed{Armed: true}, true},
		{"armed switch off", primitives.SafetyStatus{SafetySwitchAvailable: true, SafetyOff: true}, primitives.ActuatorArmed{Armed: true}, false},
	}
	for _, tt := range tests {
		if got := IsSafe(tt.safety, tt.armed); got != tt.want {
			t.Errorf("%s: IsSafe = %v, want %v", tt.name, got, tt.want)
		}
	}
}
