package primitives

import "fmt"

// ArmingState is the arm/disarm lifecycle stage of the vehicle.
type ArmingState uint8

const (
	ArmingInit ArmingState = iota
	ArmingStandby
	ArmingArmed
	ArmingArmedError
	ArmingStandbyError
	ArmingReboot
	ArmingInAirRestore

	// ArmingStateCount sizes the arming transition table.
	ArmingStateCount = int(ArmingInAirRestore) + 1
)

var armingStateNames = [ArmingStateCount]string{
	"ARMING_STATE_INIT",
	"ARMING_STATE_STANDBY",
	"ARMING_STATE_ARMED",
	"ARMING_STATE_ARMED_ERROR",
	"ARMING_STATE_STANDBY_ERROR",
	"ARMING_STATE_REBOOT",
	"ARMING_STATE_IN_AIR_RESTORE",
}

// AllArmingStates lists every arming state in table order.
func AllArmingStates() []ArmingState {
	out := make([]ArmingState, ArmingStateCount)
	for i := range out {
		out[i] = ArmingState(i)
	}
	return out
}

func (s ArmingState) Valid() bool { return int(s) < ArmingStateCount }

// Armed reports whether actuators may produce output in this state.
func (s ArmingState) Armed() bool { return s == ArmingArmed || s == ArmingArmedError }

func (s ArmingState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("ARMING_STATE_UNKNOWN(%d)", uint8(s))
	}
	return armingStateNames[s]
}

func (s ArmingState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid arming state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *ArmingState) UnmarshalText(b []byte) error {
	for i, name := range armingStateNames {
		if name == string(b) {
			*s = ArmingState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown arming state %q", b)
}

// MainState is the operator-requested top-level flight mode.
type MainState uint8

const (
	MainManual MainState = iota
	MainAltCtl
	MainPosCtl
	MainAutoMission
	MainAutoLoiter
	MainAutoRTL
	MainAcro

	MainStateCount = int(MainAcro) + 1
)

var mainStateNames = [MainStateCount]string{
	"MANUAL",
	"ALTCTL",
	"POSCTL",
	"AUTO_MISSION",
	"AUTO_LOITER",
	"AUTO_RTL",
	"ACRO",
}

func (s MainState) Valid() bool { return int(s) < MainStateCount }

func (s MainState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("MAIN_STATE_UNKNOWN(%d)", uint8(s))
	}
	return mainStateNames[s]
}

func (s MainState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid main state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *MainState) UnmarshalText(b []byte) error {
	for i, name := range mainStateNames {
		if name == string(b) {
			*s = MainState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown main state %q", b)
}

// NavState is the concrete behavior executed by the flight-control loop.
type NavState uint8

const (
	NavManual NavState = iota
	NavAltCtl
	NavPosCtl
	NavAutoMission
	NavAutoLoiter
	NavAutoRTL
	NavAcro
	NavLand
	NavDescend
	NavTermination

	NavStateCount = int(NavTermination) + 1
)

var navStateNames = [NavStateCount]string{
	"MANUAL",
	"ALTCTL",
	"POSCTL",
	"AUTO_MISSION",
	"AUTO_LOITER",
	"AUTO_RTL",
	"ACRO",
	"LAND",
	"DESCEND",
	"TERMINATION",
}

func (s NavState) Valid() bool { return int(s) < NavStateCount }

func (s NavState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("NAV_STATE_UNKNOWN(%d)", uint8(s))
	}
	return navStateNames[s]
}

func (s NavState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid navigation state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *NavState) UnmarshalText(b []byte) error {
	for i, name := range navStateNames {
		if name == string(b) {
			*s = NavState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown navigation state %q", b)
}

// HILState reports whether hardware-in-the-loop simulation is active.
type HILState uint8

const (
	HILOff HILState = iota
	HILOn
)

func (s HILState) Valid() bool { return s == HILOff || s == HILOn }

func (s HILState) String() string {
	switch s {
	case HILOff:
		return "HIL_STATE_OFF"
	case HILOn:
		return "HIL_STATE_ON"
	}
	return fmt.Sprintf("HIL_STATE_UNKNOWN(%d)", uint8(s))
}

func (s HILState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid hil state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *HILState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "HIL_STATE_OFF":
		*s = HILOff
	case "HIL_STATE_ON":
		*s = HILOn
	default:
		return fmt.Errorf("unknown hil state %q", b)
	}
	return nil
}

// TransitionResult is the outcome of every transition request.
type TransitionResult uint8

const (
	// TransitionDenied is the zero value so an unset result fails closed.
	TransitionDenied TransitionResult = iota
	TransitionNotChanged
	TransitionChanged
)

func (r TransitionResult) String() string {
	switch r {
	case TransitionDenied:
		return "DENIED"
	case TransitionNotChanged:
		return "NOT_CHANGED"
	case TransitionChanged:
		return "CHANGED"
	}
	return fmt.Sprintf("TRANSITION_UNKNOWN(%d)", uint8(r))
}

// Severity grades a diagnostic message for the telemetry sink.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}
