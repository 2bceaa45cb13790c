package session

import (
	"errors"
	"math"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gothrust/pkg/calibration"
	"github.com/itohio/gothrust/pkg/console"
	"github.com/itohio/gothrust/pkg/loadcell"
	"github.com/itohio/gothrust/pkg/storage"
)

// fakeSource is a load cell whose readiness and weight are set by the test.
type fakeSource struct {
	ready      bool
	weight     float64
	counts     float64
	factor     float64
	tareAfter  int
	tareLeft   int
	tareDone   bool
	tareCalls  int
	updates    int
	panicAfter int
}

var _ loadcell.Source = (*fakeSource)(nil)

func (f *fakeSource) Update() bool {
	f.updates++
	if f.panicAfter > 0 && f.updates >= f.panicAfter {
		panic("sensor fault")
	}
	if f.tareLeft > 0 {
		f.tareLeft--
		if f.tareLeft == 0 {
			f.tareDone = true
		}
	}
	return f.ready
}

func (f *fakeSource) WeightGrams() float64 { return f.weight }

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
	if loadcell.ValidFactor(v) {
		f.factor = v
	}
}

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time           { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	src   *fakeSource
	mux   *console.Mux
	wired *console.Buffer
	radio *console.Buffer
	logs  *storage.Log
	store *calibration.Memory
	clk   *clock
	c     *Controller
}

func newHarness(t *testing.T) (*harness, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("logs", 0o755))
	return newHarnessWith(t, storage.New(fs, storage.Options{Dir: "logs"}), nil), fs
}

func newHarnessWith(t *testing.T, logs *storage.Log, mutate func(*Options)) *harness {
	t.Helper()
	h := &harness{
		src:   &fakeSource{factor: 100, counts: 108500, tareAfter: 2, tareDone: true},
		mux:   console.NewMux(),
		wired: console.NewBuffer("wired"),
		radio: console.NewBuffer("radio"),
		logs:  logs,
		store: &calibration.Memory{Def: 217.84},
		clk:   &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.mux.Add(h.wired, true)
	h.mux.Add(h.radio, true)

	opts := Options{
		SampleInterval: 20 * time.Millisecond,
		BurnThreshold:  0.5,
		ToggleChannel:  1,
		Now:            h.clk.Now,
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.c = New(h.src, h.mux, logs, h.store, opts)
	return h
}

// send feeds s on ch and steps once per byte with no sensor reading ready.
func (h *harness) send(ch *console.Buffer, s string) {
	h.src.ready = false
	ch.Feed(s)
	for range s {
		h.c.Step()
	}
}

// tick advances the clock by dt and steps with a fresh reading, n times.
func (h *harness) tick(n int, dt time.Duration, weight func(i int) float64) {
	for i := 0; i < n; i++ {
		h.clk.Advance(dt)
		h.src.ready = true
		if weight != nil {
			h.src.weight = weight(i)
		}
		h.c.Step()
	}
	h.src.ready = false
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

var rowPattern = regexp.MustCompile(`^-?\d+\.\d{3},-?\d+\.\d{2},-?\d+\.\d{3}$`)

// rows returns the console lines that are CSV data rows.
func rows(lines []string) []string {
	var out []string
	for _, l := range lines {
		if rowPattern.MatchString(l) {
			out = append(out, l)
		}
	}
	return out
}

func fileLines(t *testing.T, fs afero.Fs, name string) []string {
	t.Helper()
	data, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func contains(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// syncFailFs hands out files whose Sync fails once failing is set.
type syncFailFs struct {
	afero.Fs
	failing *bool
}

type syncFailFile struct {
	afero.File
	failing *bool
}

var errEjected = errors.New("medium ejected")

func (s syncFailFile) Sync() error {
	if *s.failing {
		return errEjected
	}
	return s.File.Sync()
}

func (s syncFailFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := s.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return syncFailFile{File: f, failing: s.failing}, nil
}
