// Command station-simulator emulates a welding station's combined serial
// stream over TCP: PLC status frames interleaved with a 25 Hz laser
// height waveform that cycles IDLE -> RISING -> WELDING -> FALLING.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"time"
)

const laserInterval = 40 * time.Millisecond // 25 Hz

type simulatorState int

const (
	stateIdle simulatorState = iota
	stateRising
	stateWelding
	stateFalling
)

// waveform models one pneumatic press: a part rises to a random peak,
// collapses slightly under the weld with vibration, then retracts.
type waveform struct {
	state        simulatorState
	value        float64
	peak         float64
	reference    float64
	weldProgress float64
	holdCounter  int
	idleCounter  int
	rng          *rand.Rand
}

func newWaveform(rng *rand.Rand) *waveform {
	return &waveform{
		state:       stateIdle,
		idleCounter: 150 + rng.Intn(250),
		rng:         rng,
	}
}

// next advances the waveform by one 40ms tick and returns the height.
func (w *waveform) next() float64 {
	switch w.state {
	case stateIdle:
		// No part: near-zero with tiny noise
		w.value = w.rng.Float64() * 0.05
		w.idleCounter--
		if w.idleCounter <= 0 {
			w.peak = 45.0 + w.rng.Float64()*45.0
			w.state = stateRising
			w.idleCounter = 150 + w.rng.Intn(250)
		}

	case stateRising:
		// Pneumatic cylinder pushing the part up
		w.value += (w.peak - w.value) * 0.28
		if w.peak-w.value < 1.0 {
			w.value = w.peak
			w.reference = w.peak
			w.weldProgress = 0
			w.holdCounter = 120 + w.rng.Intn(100)
			w.state = stateWelding
		}

	case stateWelding:
		// Material collapses slightly, plus electrode vibration
		w.weldProgress += 0.02 + w.rng.Float64()*0.06
		up := w.rng.Float64() * 0.4
		down := 0.2 + w.rng.Float64()*1.0
		w.value = w.reference - w.weldProgress + up - down
		w.holdCounter--
		if w.holdCounter <= 0 {
			w.state = stateFalling
		}

	case stateFalling:
		// Retract: part drops away
		w.value *= 0.84
		if w.value < 3.0 {
			w.value = 0
			w.state = stateIdle
		}
	}

	return w.value
}

func main() {
	var (
		port        = flag.String("port", "8550", "TCP port to listen on")
		plcInterval = flag.Duration("plc-interval", 5*time.Second, "Interval between PLC status frames")
		flaky       = flag.Bool("flaky", false, "Randomly report power-off and non-RUNNING states")
	)
	flag.Parse()

	log.Printf("Welding Station Simulator")
	log.Printf("Listening on port %s, laser at 25 Hz, PLC every %v", *port, *plcInterval)

	listener, err := net.Listen("tcp", ":"+*port)
	if err != nil {
		log.Fatal("Failed to listen:", err)
	}
	defer listener.Close()

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("Failed to accept connection: %v", err)
			continue
		}

		log.Printf("Client connected from %s", conn.RemoteAddr())
		go handleConnection(conn, *plcInterval, *flaky)
	}
}

func handleConnection(conn net.Conn, plcInterval time.Duration, flaky bool) {
	defer conn.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	wave := newWaveform(rng)
	w := bufio.NewWriter(conn)

	// Send initial PLC state immediately so the reader syncs at once.
	if err := writePLC(w, rng, flaky); err != nil {
		log.Printf("Failed to send PLC frame: %v", err)
		return
	}

	laserTicker := time.NewTicker(laserInterval)
	defer laserTicker.Stop()
	plcTicker := time.NewTicker(plcInterval)
	defer plcTicker.Stop()

	for {
		select {
		case <-laserTicker.C:
			if _, err := fmt.Fprintf(w, "L%07.2f\r\n", wave.next()); err != nil {
				log.Printf("Client disconnected: %v", err)
				return
			}
			if err := w.Flush(); err != nil {
				log.Printf("Client disconnected: %v", err)
				return
			}
		case <-plcTicker.C:
			if err := writePLC(w, rng, flaky); err != nil {
				log.Printf("Client disconnected: %v", err)
				return
			}
		}
	}
}

func writePLC(w *bufio.Writer, rng *rand.Rand, flaky bool) error {
	power, state := "ON", "RUNNING"
	if flaky && rng.Float64() >= 0.92 {
		power, state = "OFF", "OFFLINE"
	} else if flaky && rng.Float64() < 0.1 {
		state = []string{"IDLE", "FAULT", "ALARM"}[rng.Intn(3)]
	}
	if _, err := fmt.Fprintf(w, "PLC:%s,%s\r\n", power, state); err != nil {
		return err
	}
	return w.Flush()
}
