package calibration

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/itohio/gothrust/pkg/console"
	"github.com/itohio/gothrust/pkg/loadcell"
)

// Mode selects the calibration flow.
type Mode int

const (
	// Full tares, asks for a reference mass and derives the factor.
	Full Mode = iota
	// Manual asks for the factor directly.
	Manual
)

// State is a wizard wait state.
type State int

const (
	WaitTareCommand State = iota
	WaitTare
	WaitMass
	WaitFactor
	WaitAnswer
	Done
)

func (s State) String() string {
	switch s {
	case WaitTareCommand:
		return "wait-tare-command"
	case WaitTare:
		return "wait-tare"
	case WaitMass:
		return "wait-mass"
	case WaitFactor:
		return "wait-factor"
	case WaitAnswer:
		return "wait-answer"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Console is the part of the multiplexed console the wizard talks through.
type Console interface {
	Poll() (console.Event, bool)
	Printf(format string, args ...any)
}

// Outcome reports how a finished wizard ended.
type Outcome int

const (
	Pending Outcome = iota
	Accepted
	Rejected
	Cancelled
)

// Wizard derives a new calibration factor interactively. Each Step polls
// the sensor and at most one console byte; nothing blocks.
type Wizard struct {
	src   loadcell.Source
	con   Console
	store Store

	state    State
	outcome  Outcome
	previous float64
	tokens   map[int][]byte

	pollSleep time.Duration
}

// New starts a wizard in the given mode and prints its first prompt.
func New(src loadcell.Source, con Console, store Store, mode Mode) *Wizard {
	w := &Wizard{
		src:       src,
		con:       con,
		store:     store,
		previous:  src.CalibrationFactor(),
		tokens:    make(map[int][]byte),
		pollSleep: time.Millisecond,
	}
	if mode == Manual {
		w.enter(WaitFactor)
	} else {
		w.enter(WaitTareCommand)
	}
	return w
}

// State returns the current wait state.
func (w *Wizard) State() State { return w.state }

// Outcome returns how the wizard ended, or Pending while it runs.
func (w *Wizard) Outcome() Outcome { return w.outcome }

// Finished reports whether the wizard reached Done.
func (w *Wizard) Finished() bool { return w.state == Done }

// Run steps the wizard until it finishes or ctx is cancelled. A cancelled
// wizard restores the factor it started with.
func (w *Wizard) Run(ctx context.Context) error {
	for !w.Finished() {
		select {
		case <-ctx.Done():
			w.Cancel()
			return ctx.Err()
		default:
		}
		w.Step()
		if w.pollSleep > 0 {
			time.Sleep(w.pollSleep)
		}
	}
	return nil
}

// Cancel abandons the wizard and restores the previous factor.
func (w *Wizard) Cancel() {
	if w.Finished() {
		return
	}
	w.src.SetCalibrationFactor(w.previous)
	w.outcome = Cancelled
	w.state = Done
}

// Step runs one iteration.
func (w *Wizard) Step() {
	if w.Finished() {
		return
	}
	w.src.Update()

	if w.state == WaitTare {
		if w.src.TareComplete() {
			w.con.Printf("Tare complete")
			w.enter(WaitMass)
		}
		return
	}

	ev, ok := w.con.Poll()
	if !ok {
		return
	}

	switch w.state {
	case WaitTareCommand:
		if ev.Code == 't' {
			w.src.RequestTare()
			w.enter(WaitTare)
		}
	case WaitMass:
		if v, ok := w.token(ev); ok {
			w.onMass(v)
		}
	case WaitFactor:
		if v, ok := w.token(ev); ok {
			w.onFactor(v)
		}
	case WaitAnswer:
		w.onAnswer(ev.Code)
	}
}

func (w *Wizard) enter(s State) {
	w.state = s
	clear(w.tokens)

	switch s {
	case WaitTareCommand:
		w.con.Printf("*** Calibration: remove any load, then send 't' to tare")
	case WaitTare:
		w.con.Printf("Taring...")
	case WaitMass:
		w.con.Printf("Place a known mass on the load cell and send its weight in grams (e.g. 100.0)")
	case WaitFactor:
		w.con.Printf("*** Current calibration factor: %.2f", w.src.CalibrationFactor())
		w.con.Printf("Send the new calibration factor (e.g. 217.84)")
	case WaitAnswer:
		w.con.Printf("Save calibration factor %.2f? Send 'y' to save, 'n' to discard", w.src.CalibrationFactor())
	}
}

// token accumulates numeric bytes per channel and returns the parsed value
// once a terminating byte arrives on the same channel.
func (w *Wizard) token(ev console.Event) (float64, bool) {
	if numeric(ev.Code) {
		w.tokens[ev.Origin] = append(w.tokens[ev.Origin], ev.Code)
		return 0, false
	}

	text := string(w.tokens[ev.Origin])
	delete(w.tokens, ev.Origin)
	if text == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		w.con.Printf("Invalid number %q, try again", text)
		return 0, false
	}
	return v, true
}

func numeric(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b == '.', b == '+', b == '-', b == 'e', b == 'E':
		return true
	}
	return false
}

func (w *Wizard) onMass(mass float64) {
	if mass <= 0 {
		w.con.Printf("Mass must be positive, got %g. Send the weight in grams", mass)
		return
	}

	factor := w.src.NewCalibrationFactor(mass)
	if !loadcell.ValidFactor(factor) {
		w.con.Printf("Cannot derive a factor from %.2f g (got %v), check the load and send the weight again", mass, factor)
		return
	}

	w.src.SetCalibrationFactor(factor)
	w.con.Printf("New calibration factor: %.2f, weight now reads %.2f g", factor, w.src.WeightGrams())
	w.enter(WaitAnswer)
}

func (w *Wizard) onFactor(factor float64) {
	if !loadcell.ValidFactor(factor) {
		w.con.Printf("Factor must be positive, got %g. Send the new factor", factor)
		return
	}

	w.src.SetCalibrationFactor(factor)
	w.con.Printf("Calibration factor set to %.2f, weight now reads %.2f g", factor, w.src.WeightGrams())
	w.enter(WaitAnswer)
}

func (w *Wizard) onAnswer(code byte) {
	switch code {
	case 'y':
		factor := w.src.CalibrationFactor()
		if err := w.store.Save(factor); err != nil {
			log.Printf("calibration: save: %v", err)
			w.con.Printf("Warning: failed to save calibration factor %.2f: %v", factor, err)
		} else {
			w.con.Printf("Calibration factor %.2f saved", factor)
		}
		w.outcome = Accepted
	case 'n':
		w.src.SetCalibrationFactor(w.previous)
		w.con.Printf("Calibration discarded, factor remains %.2f", w.previous)
		w.outcome = Rejected
	default:
		return
	}
	w.state = Done
	w.con.Printf("*** Calibration finished")
}
