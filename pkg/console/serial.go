package console

import (
	"fmt"

	"go.bug.st/serial"
)

// Serial is a console on a serial port: a wired UART or a Bluetooth SPP
// module, which look the same to the host.
type Serial struct {
	*Stream
	port serial.Port
}

// OpenSerial opens the named port and starts reading commands from it.
func OpenSerial(name, portName string, baudRate int) (*Serial, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	s := &Serial{
		Stream: NewStream(name, port, port, port),
		port:   port,
	}
	// Arduino style terminals expect CRLF.
	s.eol = "\r\n"
	return s, nil
}
