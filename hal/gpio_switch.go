package hal

import (
	"fmt"

	"github.com/samoyed-instruments/meascore/status"
	"github.com/warthog618/go-gpiocdev"
)

// GPIOSwitch implements FrontEndSwitch by driving one output line per
// calibration-standard/band relay path, chosen from lines by path_id.
// Exactly one line is ever asserted; SetPath deasserts every other line
// first so two relays are never energized together.
type GPIOSwitch struct {
	lines []*gpiocdev.Line
}

// OpenGPIOSwitch requests one output line per entry in offsets on chip,
// indexed by path ID (offsets[0] is path 0, and so on).
func OpenGPIOSwitch(chip string, offsets []int) (*GPIOSwitch, error) {
	lines := make([]*gpiocdev.Line, len(offsets))
	for i, off := range offsets {
		line, err := gpiocdev.RequestLine(chip, off, gpiocdev.AsOutput(0))
		if err != nil {
			for _, l := range lines[:i] {
				if l != nil {
					l.Close()
				}
			}
			return nil, fmt.Errorf("hal: request gpio line %d on %s: %w", off, chip, err)
		}
		lines[i] = line
	}
	return &GPIOSwitch{lines: lines}, nil
}

// SetPath asserts the line for pathID and deasserts every other line.
func (s *GPIOSwitch) SetPath(pathID int32) status.Status {
	if pathID < 0 || int(pathID) >= len(s.lines) {
		return status.Error
	}
	for i, line := range s.lines {
		if i == int(pathID) {
			continue
		}
		if err := line.SetValue(0); err != nil {
			return status.Error
		}
	}
	if err := s.lines[pathID].SetValue(1); err != nil {
		return status.Error
	}
	return status.Ok
}

// Close releases every requested line.
func (s *GPIOSwitch) Close() error {
	var firstErr error
	for _, l := range s.lines {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
