package loadcell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the standard baud rate of the HX711 bridge.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the conversions channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial reads raw HX711 conversions streamed by a bridge MCU, one signed
// integer per line.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	raw       chan int32
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// NewSerial creates a new bridge driver with the specified port, baud rate, and buffer size.
func NewSerial(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		raw:      make(chan int32, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts reading conversions.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}
	// Drop whatever the bridge sent before we were listening.
	if err := port.ResetInputBuffer(); err != nil {
		log.Printf("loadcell: failed to reset input buffer: %v", err)
	}

	d.conn = port
	d.connected = true

	go d.readConversions(port)

	return nil
}

// Close closes the connection and stops reading conversions.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	return nil
}

// Poll returns the oldest buffered conversion, if any.
func (d *Serial) Poll() (int32, bool, error) {
	select {
	case v := <-d.raw:
		return v, true, nil
	default:
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.connected {
		return 0, false, fmt.Errorf("not connected")
	}
	return 0, false, nil
}

// IsConnected returns whether the driver is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readConversions reads lines from the serial port and queues parsed conversions.
func (d *Serial) readConversions(r io.Reader) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Panic in readConversions: %v", rec)
		}
	}()

	scanner := bufio.NewScanner(r)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			v, err := parseLine(line)
			if err != nil {
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			select {
			case d.raw <- v:
			case <-d.ctx.Done():
				return
			default:
				log.Printf("Conversions channel full, dropping conversion")
			}
		}
	}
}

// parseLine parses a bridge line into a raw 24-bit conversion.
// Format: raw
// Example: -123456
func parseLine(line string) (int32, error) {
	v, err := strconv.ParseInt(line, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid conversion: %w", err)
	}
	if v < -(1<<23) || v >= 1<<23 {
		return 0, fmt.Errorf("conversion out of range: %d (24-bit)", v)
	}
	return int32(v), nil
}
