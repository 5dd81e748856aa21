package primitives

import "time"

// Conditions are the validity flags reported by estimation and self-check.
type Conditions struct {
	LocalPositionValid       bool `json:"local_position_valid" yaml:"local_position_valid"`
	GlobalPositionValid      bool `json:"global_position_valid" yaml:"global_position_valid"`
	LocalAltitudeValid       bool `json:"local_altitude_valid" yaml:"local_altitude_valid"`
	HomePositionValid        bool `json:"home_position_valid" yaml:"home_position_valid"`
	SystemSensorsInitialized bool `json:"system_sensors_initialized" yaml:"system_sensors_initialized"`
}

// VehicleStatus is the shared status record owned by the commander.
type VehicleStatus struct {
	ArmingState ArmingState `json:"arming_state" yaml:"arming_state"`
	MainState   MainState   `json:"main_state" yaml:"main_state"`
	NavState    NavState    `json:"nav_state" yaml:"nav_state"`
	HILState    HILState    `json:"hil_state" yaml:"hil_state"`
	Failsafe    bool        `json:"failsafe" yaml:"failsafe"`

	Conditions   Conditions `json:"conditions" yaml:"conditions"`
	IsRotaryWing bool       `json:"is_rotary_wing" yaml:"is_rotary_wing"`

	RCSignalLost bool `json:"rc_signal_lost" yaml:"rc_signal_lost"`
	DataLinkLost bool `json:"data_link_lost" yaml:"data_link_lost"`

	// Timestamp is monotonic time since boot of the last published change.
	Timestamp time.Duration `json:"timestamp" yaml:"timestamp"`
}

// SafetyStatus reflects the physical safety interlock.
type SafetyStatus struct {
	SafetySwitchAvailable bool `json:"safety_switch_available" yaml:"safety_switch_available"`
	SafetyOff             bool `json:"safety_off" yaml:"safety_off"`
}

// Engaged reports whether a present switch is still holding actuators safe.
func (s SafetyStatus) Engaged() bool {
	return s.SafetySwitchAvailable && !s.SafetyOff
}

// ActuatorArmed is the output contract consumed by the actuator subsystem.
type ActuatorArmed struct {
	Armed      bool `json:"armed" yaml:"armed"`
	ReadyToArm bool `json:"ready_to_arm" yaml:"ready_to_arm"`
	Lockdown   bool `json:"lockdown" yaml:"lockdown"`
}

// Diagnostic is a human-readable message bound for the telemetry sink.
type Diagnostic struct {
	Severity Severity
	Text     string
}
