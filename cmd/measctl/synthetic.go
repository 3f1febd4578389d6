package main

import (
	"math"

	"github.com/samoyed-instruments/meascore/dsp"
	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
)

// syntheticSynth is a no-op hal.Synthesizer standing in for hardware,
// analogous to the teacher's ability to read from a file/stdin instead of
// a sound card (cmd/direwolf's "UDP:nnnn"/stdin audio source fallback).
type syntheticSynth struct {
	lastHz  kernel.R
	lastDbm kernel.R
	enabled bool
}

func (s *syntheticSynth) SetFrequency(hz kernel.R) status.Status { s.lastHz = hz; return status.Ok }
func (s *syntheticSynth) SetPower(dbm kernel.R) status.Status    { s.lastDbm = dbm; return status.Ok }
func (s *syntheticSynth) EnableOutput(on bool) status.Status     { s.enabled = on; return status.Ok }

// syntheticSwitch is a no-op hal.FrontEndSwitch recording the last
// selected path for the simulator's own bookkeeping.
type syntheticSwitch struct {
	path int32
}

func (s *syntheticSwitch) SetPath(pathID int32) status.Status { s.path = pathID; return status.Ok }

// syntheticVNAReceiver fills an acquisition buffer with matched reference
// and sample sine-table pairs, emulating a perfectly reflective standard so
// the simulator produces a stable |Gamma| ~= 1 trace without real RF.
type syntheticVNAReceiver struct {
	table     *dsp.SineTable
	phaseStep int
}

func (r *syntheticVNAReceiver) Configure(sampleRate kernel.R, decimation int32) status.Status {
	return status.Ok
}

func (r *syntheticVNAReceiver) Start(buf []int16) status.Status {
	if len(buf)%2 != 0 {
		return status.Error
	}
	for i := 0; i+1 < len(buf); i += 2 {
		v := r.table.Sin((i / 2) * r.phaseStep)
		buf[i] = v
		buf[i+1] = v
	}
	return status.Ok
}

func (r *syntheticVNAReceiver) Stop() status.Status { return status.Ok }

// syntheticSAReceiver fills an acquisition buffer with a single real tone,
// emulating a narrowband signal under test for the spectrum path.
type syntheticSAReceiver struct {
	toneHz     kernel.R
	sampleRate kernel.R
}

func (r *syntheticSAReceiver) Configure(sampleRate kernel.R, decimation int32) status.Status {
	return status.Ok
}

func (r *syntheticSAReceiver) Start(buf []int16) status.Status {
	for i := range buf {
		v := math.Sin(2 * math.Pi * float64(r.toneHz) * float64(i) / float64(r.sampleRate))
		buf[i] = int16(v * 16000)
	}
	return status.Ok
}

func (r *syntheticSAReceiver) Stop() status.Status { return status.Ok }

// syntheticLink is an in-process loopback hal.Link: writes are appended to
// an internal buffer that reads drain from, standing in for a real
// serial/USB transport when no hardware is attached.
type syntheticLink struct {
	buf []byte
}

func (l *syntheticLink) Send(buf []byte) (int, status.Status) {
	l.buf = append(l.buf, buf...)
	return len(buf), status.Ok
}

func (l *syntheticLink) Recv(buf []byte) (int, status.Status) {
	if len(l.buf) == 0 {
		return 0, status.Pending
	}
	n := copy(buf, l.buf)
	l.buf = l.buf[n:]
	return n, status.Ok
}

func (l *syntheticLink) IsConnected() bool { return true }
func (l *syntheticLink) Flush() status.Status {
	l.buf = l.buf[:0]
	return status.Ok
}
