// Package hal declares the abstract hardware interfaces the channel FSMs
// consume: synthesizer, receiver, front-end switch, host link, and block
// storage. This package also holds the concrete hardware adapters
// (SerialLink, SerialLineSwitch, GPIOSwitch, HamlibSynth,
// PortaudioReceiver); the synthetic backends live in cmd/measctl. Per
// spec.md 1, clock/peripheral bring-up and protocol-level driver code are
// explicitly out of the core's scope.
package hal

import (
	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
)

// Synthesizer drives the instrument's local oscillator / stimulus source.
type Synthesizer interface {
	SetFrequency(hz kernel.R) status.Status
	SetPower(dbm kernel.R) status.Status
	EnableOutput(on bool) status.Status
}

// Receiver owns the ADC/DMA acquisition path. Start is non-blocking: it
// initiates a transfer into buf and returns immediately; completion is
// signaled out-of-band via the DataReady event.
type Receiver interface {
	Configure(sampleRate kernel.R, decimation int32) status.Status
	Start(buf []int16) status.Status
	Stop() status.Status
}

// FrontEndSwitch selects an RF signal path (e.g. a band or calibration
// standard relay).
type FrontEndSwitch interface {
	SetPath(pathID int32) status.Status
}

// Link is a byte-stream transport to the host (serial, USB-CDC, network).
type Link interface {
	Send(buf []byte) (int, status.Status)
	Recv(buf []byte) (int, status.Status)
	IsConnected() bool
	Flush() status.Status
}

// Storage is a block device used for calibration files and captures.
type Storage interface {
	Read(sector uint32, buf []byte, count int) status.Status
	Write(sector uint32, buf []byte, count int) status.Status
	GetCapacity() uint64
	IsReady() bool
}
