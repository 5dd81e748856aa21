package core

import (
	"github.com/comalice/commanderx/internal/primitives"
)

// HILTransition decides a HIL state request without mutating status. A
// TransitionChanged result authorizes the caller to block sensor publication
// and commit status.HILState.
func HILTransition(status *primitives.VehicleStatus, requested primitives.HILState) (primitives.TransitionResult, []primitives.Diagnostic) {
	if status.HILState == requested {
		return primitives.TransitionNotChanged, nil
	}

	switch requested {
	case primitives.HILOff:
		return primitives.TransitionDenied, []primitives.Diagnostic{{
			Severity: primitives.SeverityCritical,
			Text:     "#audio: Not switching off HIL (safety)",
		}}
	case primitives.HILOn:
		switch status.ArmingState {
		case primitives.ArmingInit, primitives.ArmingStandby, primitives.ArmingStandbyError:
			return primitives.TransitionChanged, nil
		}
		return primitives.TransitionDenied, []primitives.Diagnostic{{
			Severity: primitives.SeverityCritical,
			Text:     "Not switching to HIL when armed",
		}}
	}
	return primitives.TransitionDenied, []primitives.Diagnostic{{
		Severity: primitives.SeverityWarning,
		Text:     "Unknown HIL state " + requested.String(),
	}}
}
