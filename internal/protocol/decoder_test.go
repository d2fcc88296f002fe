package protocol

import (
	"math"
	"testing"
)

func TestParseLinePLC(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantPower bool
		wantState string
	}{
		{
			name:      "power on running",
			line:      "PLC:ON,RUNNING",
			wantPower: true,
			wantState: "RUNNING",
		},
		{
			name:      "power off stopped",
			line:      "PLC:OFF,STOPPED",
			wantPower: false,
			wantState: "STOPPED",
		},
		{
			name:      "free-form state token",
			line:      "PLC:ON,FAULT",
			wantPower: true,
			wantState: "FAULT",
		},
		{
			name:      "state with embedded comma keeps remainder",
			line:      "PLC:OFF,ALARM,E12",
			wantPower: false,
			wantState: "ALARM,E12",
		},
		{
			name:      "whitespace around tokens",
			line:      "PLC: ON , RUNNING",
			wantPower: true,
			wantState: "RUNNING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := ParseLine(tt.line)
			pf, ok := frame.(PowerFrame)
			if !ok {
				t.Fatalf("ParseLine(%q) = %T, expected PowerFrame", tt.line, frame)
			}
			if pf.Status.Power != tt.wantPower {
				t.Errorf("Power = %v, expected %v", pf.Status.Power, tt.wantPower)
			}
			if pf.Status.State != tt.wantState {
				t.Errorf("State = %q, expected %q", pf.Status.State, tt.wantState)
			}
		})
	}
}

func TestParseLineLaser(t *testing.T) {
	tests := []struct {
		name string
		line string
		want float64
	}{
		{name: "zero-padded", line: "L0023.45", want: 23.45},
		{name: "plain", line: "L52.43", want: 52.43},
		{name: "negative", line: "L-1.2", want: -1.2},
		{name: "integer", line: "L7", want: 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := ParseLine(tt.line)
			hf, ok := frame.(HeightFrame)
			if !ok {
				t.Fatalf("ParseLine(%q) = %T, expected HeightFrame", tt.line, frame)
			}
			if math.Abs(hf.Sample.Value-tt.want) > 1e-9 {
				t.Errorf("Value = %v, expected %v", hf.Sample.Value, tt.want)
			}
		})
	}
}

func TestParseLineDropsMalformed(t *testing.T) {
	lines := []string{
		"",
		"garbage",
		"PLC:",
		"PLC:ON",            // missing comma
		"PLC:MAYBE,RUNNING", // power token not ON/OFF
		"PLC:on,RUNNING",    // lowercase power token
		"L",
		"Lxyz",
		"L12.4.5",
		"X99.9",
	}

	for _, line := range lines {
		if frame := ParseLine(line); frame != nil {
			t.Errorf("ParseLine(%q) = %#v, expected nil", line, frame)
		}
	}
}
