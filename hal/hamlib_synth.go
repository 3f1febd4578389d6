package hal

import (
	"fmt"

	hl "github.com/xylo04/goHamlib"

	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
)

// HamlibSynth implements Synthesizer by driving a real signal generator /
// transceiver through Hamlib, grounded on the rig_init/rig_open/rig_set_ptt
// /rig_close/rig_cleanup sequence the teacher's ptt.go drives via cgo — this
// implementation uses the pure-Go binding instead of linking libhamlib
// through cgo directly.
type HamlibSynth struct {
	rig *hl.Rig
}

// OpenHamlibSynth initializes and opens a rig of the given Hamlib model
// number on the given port (e.g. "/dev/ttyUSB0" or a network host:port).
func OpenHamlibSynth(model int, port string) (*HamlibSynth, error) {
	rig := hl.RigInit(model)
	if rig == nil {
		return nil, fmt.Errorf("hal: rig_init failed for model %d", model)
	}
	rig.SetConf("rig_pathname", port)
	if err := rig.Open(); err != nil {
		return nil, fmt.Errorf("hal: rig_open on %s: %w", port, err)
	}
	return &HamlibSynth{rig: rig}, nil
}

// SetFrequency tunes the rig's current VFO.
func (s *HamlibSynth) SetFrequency(hz kernel.R) status.Status {
	if err := s.rig.SetFreq(hl.RIG_VFO_CURR, float64(hz)); err != nil {
		return status.Error
	}
	return status.Ok
}

// SetPower sets the rig's RF power level, normalized to Hamlib's 0.0-1.0
// RFPOWER level scale.
func (s *HamlibSynth) SetPower(dbm kernel.R) status.Status {
	level := float64(dbm+30) / 60 // crude dBm -> 0..1 mapping; real rigs vary.
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	if err := s.rig.SetLevel(hl.RIG_LEVEL_RFPOWER, level); err != nil {
		return status.Error
	}
	return status.Ok
}

// EnableOutput keys/unkeys the rig's transmitter via rig_set_ptt, matching
// the teacher's ptt.go RIG_PTT_ON/RIG_PTT_OFF usage.
func (s *HamlibSynth) EnableOutput(on bool) status.Status {
	ptt := hl.RIG_PTT_OFF
	if on {
		ptt = hl.RIG_PTT_ON
	}
	if err := s.rig.SetPTT(hl.RIG_VFO_CURR, ptt); err != nil {
		return status.Error
	}
	return status.Ok
}

// Close closes and releases the underlying rig handle.
func (s *HamlibSynth) Close() error {
	if s.rig == nil {
		return nil
	}
	s.rig.Close()
	s.rig.Cleanup()
	return nil
}
