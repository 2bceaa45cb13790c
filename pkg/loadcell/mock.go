package loadcell

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/gothrust/pkg/config"
)

// Mock simulates a load cell under a periodically firing motor.
type Mock struct {
	cfg *config.MockConfig

	raw       chan int32
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	startTime time.Time
}

// NewMock creates a new mocked driver instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			Offset:     8388,
			Factor:     config.DefaultCalibrationFactor,
			NoiseLevel: 40,
			PeakThrust: 1200,
			BurnTime:   1600 * time.Millisecond,
			BurnPeriod: 20 * time.Second,
			SampleRate: 12500 * time.Microsecond,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:    cfg,
		raw:    make(chan int32, DefaultBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect starts generating conversions.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()

	go m.generateConversions()

	return nil
}

// Close stops the mocked driver.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false

	return nil
}

// Poll returns the oldest generated conversion, if any.
func (m *Mock) Poll() (int32, bool, error) {
	select {
	case v := <-m.raw:
		return v, true, nil
	default:
		return 0, false, nil
	}
}

// IsConnected returns whether the mocked driver is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mock) generateConversions() {
	if m.cfg.StartupTime > 0 {
		select {
		case <-m.ctx.Done():
			return
		case <-time.After(m.cfg.StartupTime):
		}
	}

	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			m.mu.RLock()
			elapsed := now.Sub(m.startTime)
			m.mu.RUnlock()

			select {
			case m.raw <- m.conversion(elapsed):
			case <-m.ctx.Done():
				return
			default:
				// Channel full, skip
			}
		}
	}
}

// conversion returns the simulated raw reading elapsed after Connect.
func (m *Mock) conversion(elapsed time.Duration) int32 {
	grams := m.thrust(elapsed)

	t := float32(elapsed.Seconds())
	noise := (math32.Sin(t*173.0) + math32.Cos(t*311.0)) * 0.5 * float32(m.cfg.NoiseLevel)

	v := float32(m.cfg.Offset) + grams*float32(m.cfg.Factor) + noise
	return int32(math32.Floor(v + 0.5))
}

// thrust returns the simulated load (g) elapsed after Connect. A burn starts
// every BurnPeriod, beginning one period after Connect.
func (m *Mock) thrust(elapsed time.Duration) float32 {
	if m.cfg.BurnPeriod <= 0 || m.cfg.BurnTime <= 0 || elapsed < m.cfg.BurnPeriod {
		return 0
	}
	inBurn := elapsed % m.cfg.BurnPeriod
	if inBurn >= m.cfg.BurnTime {
		return 0
	}
	return burnCurve(float32(inBurn.Seconds()/m.cfg.BurnTime.Seconds())) * float32(m.cfg.PeakThrust)
}

// burnCurve is a normalised black powder motor profile over x in [0,1):
// a sharp ignition spike, decay to a sustain plateau and a short tail-off.
func burnCurve(x float32) float32 {
	const (
		rise    = 0.12
		sustain = 0.35
		tail    = 0.85
	)
	switch {
	case x < 0:
		return 0
	case x < rise:
		return math32.Sin(x / rise * math32.Pi / 2)
	case x < tail:
		return sustain + (1-sustain)*math32.Exp(-(x-rise)*12)
	case x < 1:
		return sustain * (1 - (x-tail)/(1-tail))
	default:
		return 0
	}
}
