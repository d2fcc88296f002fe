// Package station owns the physical link to a welding station's combined
// serial stream (PLC status + laser heights multiplexed by the device
// firmware) and drives the decode, gate, detect pipeline from a single
// reader goroutine. The pipeline for one line always runs to completion
// before the next line is read; the detector depends on that ordering.
package station

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	serial "github.com/tarm/goserial"
	"go.uber.org/zap"

	"github.com/weldtech/weldwatch/internal/detector"
	"github.com/weldtech/weldwatch/internal/gate"
	"github.com/weldtech/weldwatch/internal/protocol"
	"github.com/weldtech/weldwatch/pkg/config"
)

const (
	defaultBaud             = 9600
	defaultLivenessTimeout  = 5 * time.Second
	defaultReconnectBackoff = 1500 * time.Millisecond
)

// Station reads one welding station's combined stream and feeds the gate
// and detector. It reconnects forever with a fixed backoff and trips a
// liveness watchdog when the stream goes silent.
type Station struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	netConn  net.Conn
	rwc      io.ReadWriteCloser
	config   config.DeviceData
	gate     *gate.Gate
	detector *detector.Detector
	logger   *zap.SugaredLogger

	liveness time.Duration
	backoff  time.Duration

	connected   bool
	connectedMu sync.RWMutex
}

// New creates a Station for the named device. The gate and detector are
// owned by the caller; the station only drives them.
func New(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, deviceName string, g *gate.Gate, det *detector.Detector, logger *zap.SugaredLogger) *Station {
	s := &Station{
		ctx:      ctx,
		wg:       wg,
		gate:     g,
		detector: det,
		logger:   logger,
		liveness: defaultLivenessTimeout,
		backoff:  defaultReconnectBackoff,
	}

	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		logger.Fatalf("station [%s] failed to load config: %v", deviceName, err)
	}

	var deviceConfig *config.DeviceData
	for _, device := range cfgData.Devices {
		if device.Name == deviceName {
			deviceConfig = &device
			break
		}
	}
	if deviceConfig == nil {
		logger.Fatalf("station [%s] device not found in configuration", deviceName)
	}
	s.config = *deviceConfig

	if s.config.SerialDevice == "" && (s.config.Hostname == "" || s.config.Port == "") {
		logger.Fatalf("station [%s] must define either a serial device or hostname+port", s.config.Name)
	}
	if s.config.Baud == 0 {
		s.config.Baud = defaultBaud
	}
	if s.config.LivenessTimeout != "" {
		d, err := time.ParseDuration(s.config.LivenessTimeout)
		if err != nil {
			logger.Fatalf("station [%s] invalid liveness-timeout: %v", s.config.Name, err)
		}
		s.liveness = d
	}
	if s.config.ReconnectBackoff != "" {
		d, err := time.ParseDuration(s.config.ReconnectBackoff)
		if err != nil {
			logger.Fatalf("station [%s] invalid reconnect-backoff: %v", s.config.Name, err)
		}
		s.backoff = d
	}

	return s
}

// Name returns the configured station name.
func (s *Station) Name() string {
	return s.config.Name
}

// Status returns the last-known PLC status via the station's gate.
func (s *Station) Status() (power bool, state string) {
	status := s.gate.Status()
	return status.Power, status.State
}

// Start launches the reader goroutine.
func (s *Station) Start() error {
	s.logger.Infof("starting station [%s]...", s.config.Name)
	s.wg.Add(1)
	go s.run()
	return nil
}

// Connected reports whether the stream is currently up, for external
// status displays.
func (s *Station) Connected() bool {
	s.connectedMu.RLock()
	defer s.connectedMu.RUnlock()
	return s.connected
}

func (s *Station) setConnected(up bool) {
	s.connectedMu.Lock()
	s.connected = up
	s.connectedMu.Unlock()
}

// run is the reconnect loop: connect, drain the stream, and on any error
// fail safe and retry after the configured backoff.
func (s *Station) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("cancellation request received, stopping station reader")
			return
		default:
		}

		if err := s.connect(); err != nil {
			s.logger.Errorf("station [%s] connect failed: %v", s.config.Name, err)
			if !s.sleepBackoff() {
				return
			}
			continue
		}

		s.setConnected(true)
		s.logger.Infof("station [%s] stream connected", s.config.Name)

		// Fresh link: no PLC sync yet, so the gate must start closed.
		s.gate.Reset()

		err := s.drainStream()
		s.setConnected(false)

		if err != nil {
			s.logger.Errorf("station [%s] stream lost: %v", s.config.Name, err)
		}

		// Fail safe: a half-observed cycle must not stall the detector,
		// and no laser data may pass until the PLC reports in again.
		s.gate.Reset()
		s.detector.ForceReset()

		if err == nil {
			// drainStream returns nil only on cancellation.
			return
		}
		if !s.sleepBackoff() {
			return
		}
	}
}

// connect opens the serial or network transport.
func (s *Station) connect() error {
	if s.config.SerialDevice != "" {
		sc := &serial.Config{Name: s.config.SerialDevice, Baud: s.config.Baud}
		s.logger.Debugf("opening serial port %s at %d baud", s.config.SerialDevice, s.config.Baud)
		rwc, err := serial.OpenPort(sc)
		if err != nil {
			return fmt.Errorf("could not open serial port %s: %w", s.config.SerialDevice, err)
		}
		s.rwc = rwc
		return nil
	}

	console := fmt.Sprint(s.config.Hostname, ":", s.config.Port)
	s.logger.Debugf("connecting to %s", console)
	conn, err := net.DialTimeout("tcp", console, 10*time.Second)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", console, err)
	}
	s.netConn = conn
	s.rwc = io.ReadWriteCloser(conn)
	return nil
}

// drainStream runs the pipeline over the open transport with the
// liveness watchdog armed, then tears the transport down.
func (s *Station) drainStream() error {
	rwc := s.rwc

	var lastData atomic.Int64
	lastData.Store(time.Now().UnixNano())

	// The watchdog closes the transport when the stream goes silent,
	// which unblocks the reader with an error. Reads on a serial port
	// have no deadline of their own, so this is the only way out.
	watchdogDone := make(chan struct{})
	go s.watchdog(rwc, &lastData, watchdogDone)

	err := s.processLines(rwc, &lastData)

	close(watchdogDone)
	rwc.Close()
	s.rwc = nil
	s.netConn = nil
	return err
}

// processLines scans the stream line by line and runs the pipeline for
// each: decode, gate, detect. Returns nil on cancellation, an error on
// stream loss.
func (s *Station) processLines(r io.Reader, lastData *atomic.Int64) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if lastData != nil {
			lastData.Store(time.Now().UnixNano())
		}

		select {
		case <-s.ctx.Done():
			return nil
		default:
		}

		switch frame := protocol.ParseLine(scanner.Text()).(type) {
		case protocol.PowerFrame:
			s.gate.SetPower(frame.Status)
		case protocol.HeightFrame:
			s.gate.Offer(frame.Sample.Value)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("stream closed")
}

// watchdog trips when no frame of either kind arrives within the
// liveness timeout, forcing a reconnect by closing the transport.
func (s *Station) watchdog(closer io.Closer, lastData *atomic.Int64, done <-chan struct{}) {
	ticker := time.NewTicker(s.liveness / 4)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-s.ctx.Done():
			closer.Close()
			return
		case <-ticker.C:
			silence := time.Since(time.Unix(0, lastData.Load()))
			if silence > s.liveness {
				s.logger.Errorf("station [%s] no data received within %v, forcing reconnect", s.config.Name, s.liveness)
				closer.Close()
				return
			}
		}
	}
}

// sleepBackoff waits the reconnect backoff, honoring cancellation.
// Returns false when the station should stop.
func (s *Station) sleepBackoff() bool {
	select {
	case <-s.ctx.Done():
		s.logger.Info("cancellation request received during reconnect wait")
		return false
	case <-time.After(s.backoff):
		return true
	}
}
