// Event provides the immutable request envelope fed into the commander loop.
//
// Events are value types. Once created, Events should not be mutated. Use the
// constructors below so Data always carries the type the commander expects:
//
//	Type        Data
//	arm         ArmingState
//	mode        MainState
//	hil         HILState
//	conditions  Conditions
//	safety      SafetyStatus
//	link        LinkUpdate
//	tick        nil
package primitives

const (
	EvArm        = "arm"
	EvMode       = "mode"
	EvHIL        = "hil"
	EvConditions = "conditions"
	EvSafety     = "safety"
	EvLink       = "link"
	EvTick       = "tick"
)

type Event struct {
	Type string
	Data any
}

// LinkUpdate reports link health. Nil fields leave the flag unchanged.
type LinkUpdate struct {
	RCSignalLost *bool
	DataLinkLost *bool
}

// NewEvent creates and returns a new immutable Event.
func NewEvent(eventType string, data any) Event {
	return Event{
		Type: eventType,
		Data: data,
	}
}

func ArmRequest(s ArmingState) Event { return NewEvent(EvArm, s) }
func ModeRequest(s MainState) Event { return NewEvent(EvMode, s) }
func HILRequest(s HILState) Event { return NewEvent(EvHIL, s) }
func ConditionsUpdate(c Conditions) Event { return NewEvent(EvConditions, c) }
func SafetyUpdate(s SafetyStatus) Event { return NewEvent(EvSafety, s) }
func Tick() Event { return NewEvent(EvTick, nil) }

// DataLinkUpdate reports ground-station link health only.
func DataLinkUpdate(lost bool) Event {
	return NewEvent(EvLink, LinkUpdate{DataLinkLost: &lost})
}

// RCSignalUpdate reports RC receiver link health only.
func RCSignalUpdate(lost bool) Event {
	return NewEvent(EvLink, LinkUpdate{RCSignalLost: &lost})
}
