package gate

import (
	"math/rand"
	"testing"

	"github.com/weldtech/weldwatch/internal/types"
	"go.uber.org/zap"
)

func newTestGate() (*Gate, *[]float64) {
	forwarded := &[]float64{}
	g := New(func(v float64) {
		*forwarded = append(*forwarded, v)
	}, zap.NewNop().Sugar())
	return g, forwarded
}

func TestGateForwardsOnlyWhileRunning(t *testing.T) {
	tests := []struct {
		name   string
		status *types.PowerStatus // nil means no PLC frame yet
		want   int                // forwarded count out of 3 offers
	}{
		{name: "no PLC frame yet", status: nil, want: 0},
		{name: "on and running", status: &types.PowerStatus{Power: true, State: "RUNNING"}, want: 3},
		{name: "on but idle", status: &types.PowerStatus{Power: true, State: "IDLE"}, want: 0},
		{name: "off but running token", status: &types.PowerStatus{Power: false, State: "RUNNING"}, want: 0},
		{name: "off and stopped", status: &types.PowerStatus{Power: false, State: "STOPPED"}, want: 0},
		{name: "on and fault", status: &types.PowerStatus{Power: true, State: "FAULT"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, forwarded := newTestGate()
			if tt.status != nil {
				g.SetPower(*tt.status)
			}
			g.Offer(1.0)
			g.Offer(2.0)
			g.Offer(3.0)
			if len(*forwarded) != tt.want {
				t.Errorf("forwarded %d samples, expected %d", len(*forwarded), tt.want)
			}
		})
	}
}

// A sample must be forwarded iff the most recently received PLC status had
// power on and state RUNNING, across arbitrary interleavings.
func TestGateInvariantRandomInterleavings(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	states := []string{"RUNNING", "IDLE", "STOPPED", "FAULT", "ALARM"}

	g, forwarded := newTestGate()

	open := false
	expected := 0
	for i := 0; i < 5000; i++ {
		if rng.Intn(3) == 0 {
			status := types.PowerStatus{
				Power: rng.Intn(2) == 0,
				State: states[rng.Intn(len(states))],
			}
			g.SetPower(status)
			open = status.Power && status.State == "RUNNING"
		} else {
			g.Offer(rng.Float64() * 100)
			if open {
				expected++
			}
		}
	}

	if len(*forwarded) != expected {
		t.Errorf("forwarded %d samples, expected %d", len(*forwarded), expected)
	}
}

func TestGateResetClosesForwarding(t *testing.T) {
	g, forwarded := newTestGate()

	g.SetPower(types.PowerStatus{Power: true, State: "RUNNING"})
	g.Offer(1.0)
	g.Reset()
	g.Offer(2.0)

	if len(*forwarded) != 1 {
		t.Fatalf("forwarded %d samples, expected 1", len(*forwarded))
	}

	status := g.Status()
	if status.Power || status.State != StateOffline {
		t.Errorf("status after reset = %+v, expected offline defaults", status)
	}

	// A fresh PLC frame reopens the gate.
	g.SetPower(types.PowerStatus{Power: true, State: "RUNNING"})
	g.Offer(3.0)
	if len(*forwarded) != 2 {
		t.Errorf("forwarded %d samples after resync, expected 2", len(*forwarded))
	}
}
