// Package channel implements the VNA and SA event-driven sweep state
// machines: each owns a pipeline, a target trace, a frequency plan, and
// references to abstract frontend hardware, and advances cooperatively one
// tick at a time from the superloop.
package channel

import (
	"github.com/samoyed-instruments/meascore/status"
	"github.com/samoyed-instruments/meascore/variant"
)

// State is the shared VNA/SA sweep-state skeleton.
type State int

const (
	Idle State = iota
	Setup
	Acquire
	WaitDma
	Process
	Next
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Setup:
		return "Setup"
	case Acquire:
		return "Acquire"
	case WaitDma:
		return "WaitDma"
	case Process:
		return "Process"
	case Next:
		return "Next"
	default:
		return "Unknown"
	}
}

// PropertyID identifies a settable/gettable channel property.
type PropertyID uint32

const (
	PropStartFreq PropertyID = 0x1001
	PropStopFreq  PropertyID = 0x1002
	PropPoints    PropertyID = 0x1003
	PropBufferPtr PropertyID = 0x1004
	PropBufferCap PropertyID = 0x1005
)

// Contract is the behavior every channel FSM (VNA, SA) implements.
type Contract interface {
	Configure() status.Status
	StartSweep() status.Status
	AbortSweep() status.Status
	Tick() status.Status
	State() State
	SetProperty(id PropertyID, v variant.Variant) status.Status
	GetProperty(id PropertyID) (variant.Variant, status.Status)
}

// Sweep validation limits checked by the VNA frequency plan. The SA channel
// does not check them.
const (
	MaxPoints = 1024
	MinFreqHz = 10_000
	MaxFreqHz = 6_000_000_000
)
