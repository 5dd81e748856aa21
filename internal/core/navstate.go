package core

import "github.com/comalice/commanderx/internal/primitives"

// SetNavState derives failsafe and the navigation state from the main state,
// armed-ness and the validity/link flags. It always overwrites both fields
// and reports whether NavState changed.
func SetNavState(status *primitives.VehicleStatus) bool {
	old := status.NavState
	armed := status.ArmingState.Armed()
	cond := status.Conditions
	status.Failsafe = false

	switch status.MainState {
	case primitives.MainAcro, primitives.MainManual, primitives.MainAltCtl, primitives.MainPosCtl:
		// all manual modes need RC
		if status.RCSignalLost && armed {
			status.Failsafe = true
		} else {
			status.NavState = manualNavStates[status.MainState]
		}

	case primitives.MainAutoMission:
		if (status.DataLinkLost || !cond.GlobalPositionValid) && armed {
			status.Failsafe = true
		} else if armed {
			status.NavState = primitives.NavAutoMission
		} else {
			status.NavState = primitives.NavAutoLoiter
		}

	case primitives.MainAutoLoiter:
		if (status.DataLinkLost || !cond.LocalPositionValid) && armed {
			status.Failsafe = true
		} else {
			status.NavState = primitives.NavAutoLoiter
		}

	case primitives.MainAutoRTL:
		if (!cond.GlobalPositionValid || !cond.HomePositionValid) && armed {
			status.Failsafe = true
		} else if armed {
			status.NavState = primitives.NavAutoRTL
		} else {
			status.NavState = primitives.NavAutoLoiter
		}
	}

	if status.Failsafe {
		status.NavState = failsafeNavState(cond)
	}
	return status.NavState != old
}

var manualNavStates = map[primitives.MainState]primitives.NavState{
	primitives.MainAcro:   primitives.NavAcro,
	primitives.MainManual: primitives.NavManual,
	primitives.MainAltCtl: primitives.NavAltCtl,
	primitives.MainPosCtl: primitives.NavPosCtl,
}

// failsafeNavState picks the most capable behavior the estimate supports.
func failsafeNavState(cond primitives.Conditions) primitives.NavState {
	switch {
	case cond.GlobalPositionValid && cond.HomePositionValid:
		return primitives.NavAutoRTL
	case cond.LocalPositionValid:
		return primitives.NavLand
	case cond.LocalAltitudeValid:
		return primitives.NavDescend
	default:
		return primitives.NavTermination
	}
}
