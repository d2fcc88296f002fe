// Package protocol parses the line-oriented frames that the welding
// station emits on its shared serial stream. The PLC and the laser
// distance sensor are multiplexed onto one link by the device firmware:
//
//	PLC:ON,RUNNING    machine power and run state
//	L0023.45          laser height sample in millimeters
//
// Parsing is a pure function of one line; malformed payloads produce no
// frame at all, matching the noise tolerance of the producing hardware.
package protocol

import (
	"strconv"
	"strings"

	"github.com/weldtech/weldwatch/internal/types"
)

const (
	plcMarker   = "PLC:"
	laserMarker = "L"
)

// Frame is one decoded event from the shared stream. Concrete types are
// PowerFrame and HeightFrame; a nil Frame means the line carried nothing
// usable and was dropped.
type Frame interface {
	frame()
}

// PowerFrame carries a decoded PLC status line.
type PowerFrame struct {
	Status types.PowerStatus
}

// HeightFrame carries a decoded laser height sample.
type HeightFrame struct {
	Sample types.HeightSample
}

func (PowerFrame) frame()  {}
func (HeightFrame) frame() {}

// ParseLine classifies and parses a single newline-stripped line from the
// stream. It returns nil for unrecognized or malformed lines; the drop
// policy is deliberate and silent (spurious noise on an industrial line
// is expected, not exceptional).
func ParseLine(line string) Frame {
	switch {
	case strings.HasPrefix(line, plcMarker):
		return parsePLC(strings.TrimPrefix(line, plcMarker))
	case strings.HasPrefix(line, laserMarker):
		return parseLaser(strings.TrimPrefix(line, laserMarker))
	default:
		return nil
	}
}

// parsePLC parses the "POWER,STATE" payload of a PLC status line. POWER
// must be the literal ON or OFF token. Anything else drops the frame.
func parsePLC(payload string) Frame {
	power, state, ok := strings.Cut(payload, ",")
	if !ok {
		return nil
	}

	power = strings.TrimSpace(power)
	state = strings.TrimSpace(state)

	if power != "ON" && power != "OFF" {
		return nil
	}

	return PowerFrame{Status: types.PowerStatus{
		Power: power == "ON",
		State: state,
	}}
}

// parseLaser parses the decimal payload that immediately follows the
// laser marker, e.g. "0023.45" or "-1.2".
func parseLaser(payload string) Frame {
	value, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil {
		return nil
	}

	return HeightFrame{Sample: types.HeightSample{Value: value}}
}
