package loadcell

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01
)

// ADS1115 reads a bridge amplifier on AIN0-AIN1 in continuous conversion mode.
// Conversions are 16-bit and are returned sign-extended.
type ADS1115 struct {
	busName  string
	addr     uint16
	dataRate int

	bus       i2c.BusCloser
	dev       *i2c.Dev
	period    time.Duration
	lastRead  time.Time
	now       func() time.Time
	mu        sync.Mutex
	connected bool
}

// NewADS1115 creates an ADS1115 driver on the named I2C bus.
func NewADS1115(busName string, addr int, dataRate int) *ADS1115 {
	if dataRate <= 0 {
		dataRate = 128
	}
	return &ADS1115{
		busName:  busName,
		addr:     uint16(addr),
		dataRate: dataRate,
		period:   time.Second / time.Duration(dataRate),
		now:      time.Now,
	}
}

// Connect initialises the host, opens the bus and starts continuous conversion.
func (a *ADS1115) Connect() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return fmt.Errorf("already connected")
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(a.busName)
	if err != nil {
		return fmt.Errorf("open i2c: %w", err)
	}
	dev := &i2c.Dev{Addr: a.addr, Bus: bus}

	msb, lsb, err := configWord(a.dataRate)
	if err != nil {
		bus.Close()
		return err
	}
	if err := dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
		bus.Close()
		return fmt.Errorf("write config: %w", err)
	}

	a.bus = bus
	a.dev = dev
	a.lastRead = a.now()
	a.connected = true
	return nil
}

// Close releases the I2C bus.
func (a *ADS1115) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.connected {
		return nil
	}
	a.connected = false
	if a.bus != nil {
		err := a.bus.Close()
		a.bus = nil
		a.dev = nil
		return err
	}
	return nil
}

// Poll reads the conversion register once per conversion period.
func (a *ADS1115) Poll() (int32, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.connected {
		return 0, false, fmt.Errorf("not connected")
	}
	now := a.now()
	if now.Sub(a.lastRead) < a.period {
		return 0, false, nil
	}
	a.lastRead = now

	readBuf := make([]byte, 2)
	if err := a.dev.Tx([]byte{pointerConv}, readBuf); err != nil {
		return 0, false, fmt.Errorf("read conv: %w", err)
	}
	return int32(int16(readBuf[0])<<8 | int16(readBuf[1])), true, nil
}

// IsConnected returns whether the bus is open.
func (a *ADS1115) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// configWord builds the config register for differential AIN0-AIN1,
// PGA ±0.256V, continuous conversion, comparator disabled.
func configWord(dataRate int) (byte, byte, error) {
	var dr byte
	switch dataRate {
	case 8:
		dr = 0x0
	case 16:
		dr = 0x1
	case 32:
		dr = 0x2
	case 64:
		dr = 0x3
	case 128:
		dr = 0x4
	case 250:
		dr = 0x5
	case 475:
		dr = 0x6
	case 860:
		dr = 0x7
	default:
		return 0, 0, fmt.Errorf("unsupported data rate %d", dataRate)
	}
	var config uint16
	config |= 0x0 << 12 // MUX: AIN0-AIN1
	config |= 0x5 << 9  // PGA: ±0.256V
	config |= 0 << 8    // continuous conversion
	config |= uint16(dr) << 5
	config |= 0x3 // comparator disabled
	return byte(config >> 8), byte(config & 0xFF), nil
}
