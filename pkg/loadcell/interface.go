package loadcell

// Driver defines the interface for raw load cell ADC drivers (real or mocked).
type Driver interface {
	Connect() error
	Close() error
	// Poll returns the next raw conversion if one is ready. It never blocks.
	Poll() (raw int32, ok bool, err error)
	IsConnected() bool
}

// Source is a polled, filtered weight source.
type Source interface {
	// Update must be called every loop iteration. It returns true exactly
	// once per new filtered reading.
	Update() bool
	// WeightGrams returns the latest filtered reading scaled by the
	// calibration factor.
	WeightGrams() float64
	// RequestTare schedules a zero-offset correction without blocking.
	RequestTare()
	// TareComplete reports whether the last requested tare has finished.
	TareComplete() bool
	// NewCalibrationFactor proposes a factor from the current filtered
	// reading and a known reference mass. It does not apply it.
	NewCalibrationFactor(knownMassGrams float64) float64
	CalibrationFactor() float64
	SetCalibrationFactor(factor float64)
}

// Ensure drivers implement Driver.
var (
	_ Driver = (*Serial)(nil)
	_ Driver = (*Mock)(nil)
	_ Driver = (*ADS1115)(nil)
)

// Ensure Cell implements Source.
var _ Source = (*Cell)(nil)
