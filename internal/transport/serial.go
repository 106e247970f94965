package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// OpenSerial opens a serial port with 8N1 framing at the given baud rate.
// Bytes already sitting in the driver's input buffer are discarded.
func OpenSerial(name string, baudRate int) (*Link, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}

	if err = port.ResetInputBuffer(); err != nil {
		_ = port.Close()

		return nil, fmt.Errorf("reset serial input %s: %w", name, err)
	}

	return NewLink(port), nil
}

// ListPorts returns the serial ports known to the OS.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}

	return ports, nil
}
