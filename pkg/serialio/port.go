package serialio

import (
	"errors"
	"fmt"
	"github.com/albenik/go-serial/v2"
	"go.bug.st/serial/enumerator"
	"time"
)

var ErrDeviceRequired = errors.New("serial device path is required")

type OpenError struct {
	Device string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening %s: %v", e.Device, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

type Config struct {
	Device       string
	Baud         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Port is an open serial device read line by line.
type Port struct {
	*LineReader
	port   *serial.Port
	device string
}

func Open(cfg Config) (*Port, error) {
	if cfg.Device == "" {
		return nil, ErrDeviceRequired
	}
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = time.Second
	}

	port, err := serial.Open(
		cfg.Device,
		serial.WithBaudrate(cfg.Baud),
		serial.WithReadTimeout(int(cfg.ReadTimeout.Milliseconds())),
		serial.WithWriteTimeout(int(cfg.WriteTimeout.Milliseconds())),
	)
	if err != nil {
		return nil, &OpenError{Device: cfg.Device, Err: err}
	}
	return &Port{LineReader: NewLineReader(port), port: port, device: cfg.Device}, nil
}

func (p *Port) Device() string {
	return p.device
}

func (p *Port) Close() error {
	return p.port.Close()
}

type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

func (pi PortInfo) String() string {
	if !pi.IsUSB {
		return pi.Name
	}
	s := fmt.Sprintf("%s (usb %s:%s", pi.Name, pi.VID, pi.PID)
	if pi.SerialNumber != "" {
		s += " serial " + pi.SerialNumber
	}
	return s + ")"
}

func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
		})
	}
	return ports, nil
}
