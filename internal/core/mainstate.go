package core

import (
	"fmt"

	"github.com/comalice/commanderx/internal/primitives"
)

// mainStatePrecondition returns an empty string when the mode may be granted,
// otherwise the missing condition.
func mainStatePrecondition(status *primitives.VehicleStatus, requested primitives.MainState) string {
	cond := status.Conditions
	switch requested {
	case primitives.MainManual, primitives.MainAcro:
		return ""
	case primitives.MainAltCtl:
		// TODO: require an altitude estimate on fixed-wing once it is published there.
		if !status.IsRotaryWing || cond.LocalAltitudeValid || cond.GlobalPositionValid {
			return ""
		}
		return "no altitude estimate"
	case primitives.MainPosCtl:
		if cond.LocalPositionValid || cond.GlobalPositionValid {
			return ""
		}
		return "no position estimate"
	case primitives.MainAutoMission, primitives.MainAutoLoiter:
		if cond.GlobalPositionValid {
			return ""
		}
		return "no global position"
	case primitives.MainAutoRTL:
		if cond.GlobalPositionValid && cond.HomePositionValid {
			return ""
		}
		return "no global or home position"
	}
	return "unknown mode"
}

// MainStateTransition grants or denies a flight mode. Preconditions are
// checked even when the mode is already active since they may have lapsed.
func MainStateTransition(status *primitives.VehicleStatus, requested primitives.MainState) (primitives.TransitionResult, []primitives.Diagnostic) {
	if reason := mainStatePrecondition(status, requested); reason != "" {
		return primitives.TransitionDenied, []primitives.Diagnostic{{
			Severity: primitives.SeverityCritical,
			Text:     fmt.Sprintf("Rejected mode change from %s to %s: %s", status.MainState, requested, reason),
		}}
	}
	if status.MainState == requested {
		return primitives.TransitionNotChanged, nil
	}
	status.MainState = requested
	return primitives.TransitionChanged, nil
}
