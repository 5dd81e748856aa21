// Package primitives provides the foundational data structures for the vehicle
// commander: the tagged state enumerations, the shared status record and the
// event envelope used to feed requests into the commander loop.
//
// Core invariants:
// - Every enumeration is a closed, zero-based set; Valid reports membership
// - ActuatorArmed is derived from ArmingState, never set independently
// - Event is immutable once constructed
package primitives
