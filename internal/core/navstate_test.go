package core

import (
	"testing"

	"github.com/comalice/commanderx/internal/primitives"
)

func TestSetNavState(t *testing.T) {
	all := primitives.Conditions{
		LocalPositionValid:  true,
		GlobalPositionValid: true,
		LocalAltitudeValid:  true,
		HomePositionValid:   true,
	}
	tests := []struct {
		name     string
		arming   primitives.ArmingState
		main     primitives.MainState
		cond     primitives.Conditions
		rcLost   bool
		linkLost bool
		want     primitives.NavState
		failsafe bool
	}{
		{"manual", primitives.ArmingArmed, primitives.MainManual, primitives.Conditions{}, false, false, primitives.NavManual, false},
		{"acro", primitives.ArmingArmed, primitives.MainAcro, primitives.Conditions{}, false, false, primitives.NavAcro, false},
		{"altctl", primitives.ArmingArmed, primitives.MainAltCtl, primitives.Conditions{}, false, false, primitives.NavAltCtl, false},
		{"posctl", primitives.ArmingArmed, primitives.MainPosCtl, all, false, false, primitives.NavPosCtl, false},
		{"manual rc lost armed", primitives.ArmingArmed, primitives.MainManual, all, true, false, primitives.NavAutoRTL, true},
		{"manual rc lost disarmed", primitives.ArmingStandby, primitives.MainManual, primitives.Conditions{}, true, false, primitives.NavManual, false},
		{"posctl rc lost armed error", primitives.ArmingArmedError, primitives.MainPosCtl, primitives.Conditions{}, true, false, primitives.NavTermination, true},

		{"mission armed", primitives.ArmingArmed, primitives.MainAutoMission, all, false, false, primitives.NavAutoMission, false},
		{"mission disarmed", primitives.ArmingStandby, primitives.MainAutoMission, primitives.Conditions{GlobalPositionValid: true}, false, false, primitives.NavAutoLoiter, false},
		{"mission link lost", primitives.ArmingArmed, primitives.MainAutoMission, all, false, true, primitives.NavAutoRTL, true},
		{"mission no global", primitives.ArmingArmed, primitives.MainAutoMission, primitives.Conditions{LocalPositionValid: true}, false, false, primitives.NavLand, true},
		{"mission link lost disarmed", primitives.ArmingStandby, primitives.MainAutoMission, primitives.Conditions{}, false, true, primitives.NavAutoLoiter, false},

		{"loiter armed", primitives.ArmingArmed, primitives.MainAutoLoiter, primitives.Conditions{LocalPositionValid: true}, false, false, primitives.NavAutoLoiter, false},
		{"loiter no local", primitives.ArmingArmed, primitives.MainAutoLoiter, primitives.Conditions{LocalAltitudeValid: true}, false, false, primitives.NavDescend, true},
		{"loiter link lost", primitives.ArmingArmed, primitives.MainAutoLoiter, primitives.Conditions{LocalPositionValid: true}, false, true, primitives.NavLand, true},
		{"loiter disarmed", primitives.ArmingInit, primitives.MainAutoLoiter, primitives.Conditions{}, false, false, primitives.NavAutoLoiter, false},

		{"rtl armed", primitives.ArmingArmed, primitives.MainAutoRTL, primitives.Conditions{GlobalPositionValid: true, HomePositionValid: true}, false, false, primitives.NavAutoRTL, false},
		{"rtl disarmed", primitives.ArmingStandby, primitives.MainAutoRTL, all, false, false, primitives.NavAutoLoiter, false},
		{"rtl no home land", primitives.ArmingArmed, primitives.MainAutoRTL, primitives.Conditions{GlobalPositionValid: true, LocalPositionValid: true}, false, false, primitives.NavLand, true},
		{"rtl no home descend", primitives.ArmingArmed, primitives.MainAutoRTL, primitives.Conditions{GlobalPositionValid: true, LocalAltitudeValid: true}, false, false, primitives.NavDescend, true},
		{"rtl no home terminate", primitives.ArmingArmed, primitives.MainAutoRTL, primitives.Conditions{GlobalPositionValid: true}, false, false, primitives.NavTermination, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := primitives.VehicleStatus{
				ArmingState:  tt.arming,
				MainState:    tt.main,
				Conditions:   tt.cond,
				RCSignalLost: tt.rcLost,
				DataLinkLost: tt.linkLost,
				NavState:     primitives.NavTermination,
				Failsafe:     !tt.failsafe,
			}
			changed := SetNavState(&status)
			if status.NavState != tt.want {
				t.Errorf("NavState = %v, want %v", status.NavState, tt.want)
			}
			if status.Failsafe != tt.failsafe {
				t.Errorf("Failsafe = %v, want %v", status.Failsafe, tt.failsafe)
			}
			if changed != (tt.want != primitives.NavTermination) {
				t.Errorf("changed = %v from TERMINATION to %v", changed, tt.want)
			}
		})
	}
}

func TestSetNavState_Idempotent(t *testing.T) {
	status := primitives.VehicleStatus{
		ArmingState: primitives.ArmingArmed,
		MainState:   primitives.MainAutoRTL,
		Conditions:  primitives.Conditions{GlobalPositionValid: true, HomePositionValid: true},
	}
	if !SetNavState(&status) {
		t.Fatal("first evaluation should change MANUAL -> AUTO_RTL")
	}
	if SetNavState(&status) {
		t.Error("second evaluation with same inputs should not report a change")
	}
}

func TestFailsafeCascade(t *testing.T) {
	tests := []struct {
		cond primitives.Conditions
		want primitives.NavState
	}{
		{primitives.Conditions{GlobalPositionValid: true, HomePositionValid: true, LocalPositionValid: true}, primitives.NavAutoRTL},
		{primitives.Conditions{HomePositionValid: true, LocalPositionValid: true}, primitives.NavLand},
		{primitives.Conditions{GlobalPositionValid: true, LocalAltitudeValid: true}, primitives.NavDescend},
		{primitives.Conditions{HomePositionValid: true}, primitives.NavTermination},
	}
	for _, tt := range tests {
		if got := failsafeNavState(tt.cond); got != tt.want {
			t.Errorf("failsafeNavState(%+v) = %v, want %v", tt.cond, got, tt.want)
		}
	}
}
