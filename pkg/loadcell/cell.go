package loadcell

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/itohio/gothrust/pkg/sample"
)

var (
	// ErrSignalTimeout is returned by Start when the driver produced no conversion in time.
	ErrSignalTimeout = errors.New("loadcell: no signal from ADC")
	// ErrTareTimeout is returned by Start when the boot tare did not complete in time.
	ErrTareTimeout = errors.New("loadcell: tare timeout")
)

// Cell turns raw driver conversions into filtered, tared and scaled weight.
// It is not safe for concurrent use; the session loop owns it.
type Cell struct {
	drv         Driver
	filter      *sample.Window
	tare        *sample.Window
	tareSamples int

	offset      float64
	factor      float64
	tarePending bool
	tareDone    bool

	pollSleep time.Duration
}

// NewCell creates a Cell averaging filterSamples conversions per reading and
// tareSamples conversions per tare.
func NewCell(drv Driver, filterSamples, tareSamples int, factor float64) *Cell {
	if tareSamples <= 0 {
		tareSamples = 1
	}
	c := &Cell{
		drv:         drv,
		filter:      sample.NewWindow(filterSamples),
		tare:        sample.NewWindow(tareSamples),
		tareSamples: tareSamples,
		factor:      1,
		pollSleep:   time.Millisecond,
	}
	c.SetCalibrationFactor(factor)
	return c
}

// Start connects the driver, waits for the first conversion and performs the
// boot tare. Both waits are bounded by timeout; failure leaves the cell
// unusable and is meant to halt the device.
func (c *Cell) Start(ctx context.Context, timeout time.Duration) error {
	if !c.drv.IsConnected() {
		if err := c.drv.Connect(); err != nil {
			return err
		}
	}

	if err := c.waitFor(ctx, timeout, func() bool { return c.filter.Len() > 0 }); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrSignalTimeout
		}
		return err
	}

	c.RequestTare()
	if err := c.waitFor(ctx, timeout, c.TareComplete); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTareTimeout
		}
		return err
	}
	return nil
}

func (c *Cell) waitFor(ctx context.Context, timeout time.Duration, done func() bool) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		c.Update()
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollSleep):
		}
	}
}

// Close releases the driver.
func (c *Cell) Close() error {
	return c.drv.Close()
}

// Update polls the driver once and folds a new conversion into the filter.
func (c *Cell) Update() bool {
	raw, ok, err := c.drv.Poll()
	if err != nil {
		log.Printf("loadcell: poll: %v", err)
		return false
	}
	if !ok {
		return false
	}

	c.filter.Add(raw)
	if c.tarePending {
		c.tare.Add(raw)
		if c.tare.Len() >= c.tareSamples {
			c.offset = c.tare.Mean()
			c.tarePending = false
			c.tareDone = true
			log.Printf("loadcell: tare offset=%.1f", c.offset)
		}
	}
	return true
}

// WeightGrams returns the filtered weight in grams.
func (c *Cell) WeightGrams() float64 {
	if c.filter.Len() == 0 {
		return 0
	}
	return (c.filter.Mean() - c.offset) / c.factor
}

// RequestTare starts collecting conversions for a new zero offset.
func (c *Cell) RequestTare() {
	c.tare.Reset()
	c.tarePending = true
	c.tareDone = false
}

// TareComplete reports whether the last requested tare has finished.
func (c *Cell) TareComplete() bool {
	return c.tareDone
}

// TareOffset returns the current zero offset in raw counts.
func (c *Cell) TareOffset() float64 {
	return c.offset
}

// NewCalibrationFactor returns counts per gram for the filtered reading under
// the given reference mass.
func (c *Cell) NewCalibrationFactor(knownMassGrams float64) float64 {
	if knownMassGrams <= 0 || c.filter.Len() == 0 {
		return math.NaN()
	}
	return (c.filter.Mean() - c.offset) / knownMassGrams
}

// CalibrationFactor returns the factor currently applied.
func (c *Cell) CalibrationFactor() float64 {
	return c.factor
}

// SetCalibrationFactor applies a new factor. Non-positive or non-finite
// values are ignored.
func (c *Cell) SetCalibrationFactor(factor float64) {
	if !ValidFactor(factor) {
		log.Printf("loadcell: ignoring invalid calibration factor %v", factor)
		return
	}
	c.factor = factor
}

// ValidFactor reports whether f can scale counts to grams.
func ValidFactor(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
