package calibration

import (
	"math"

	"github.com/itohio/gothrust/pkg/loadcell"
)

// fakeSource is a tared load cell holding a fixed number of counts above
// the zero offset.
type fakeSource struct {
	counts     float64
	factor     float64
	tareAfter  int
	tareLeft   int
	tareDone   bool
	tareCalls  int
	updates    int
	setFactors []float64
}

var _ loadcell.Source = (*fakeSource)(nil)

func newFakeSource(counts, factor float64) *fakeSource {
	return &fakeSource{counts: counts, factor: factor, tareAfter: 2, tareDone: true}
}

func (f *fakeSource) Update() bool {
	f.updates++
	if f.tareLeft > 0 {
		f.tareLeft--
		if f.tareLeft == 0 {
			f.tareDone = true
		}
	}
	return true
}

func (f *fakeSource) WeightGrams() float64 { return f.counts / f.factor }

func (f *fakeSource) RequestTare() {
	f.tareCalls++
	f.tareDone = false
	f.tareLeft = f.tareAfter
}

func (f *fakeSource) TareComplete() bool { return f.tareDone }

func (f *fakeSource) NewCalibrationFactor(mass float64) float64 {
	if mass <= 0 {
		return math.NaN()
	}
	return f.counts / mass
}

func (f *fakeSource) CalibrationFactor() float64 { return f.factor }

func (f *fakeSource) SetCalibrationFactor(v float64) {
	if !loadcell.ValidFactor(v) {
		return
	}
	f.setFactors = append(f.setFactors, v)
	f.factor = v
}
