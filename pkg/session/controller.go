package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/itohio/gothrust/pkg/calibration"
	"github.com/itohio/gothrust/pkg/console"
	"github.com/itohio/gothrust/pkg/loadcell"
	"github.com/itohio/gothrust/pkg/meter"
	"github.com/itohio/gothrust/pkg/sample"
	"github.com/itohio/gothrust/pkg/storage"
)

// State is the session run state.
type State int

const (
	Standby State = iota
	Calibrating
	Measuring
)

func (s State) String() string {
	switch s {
	case Standby:
		return "standby"
	case Calibrating:
		return "calibrating"
	case Measuring:
		return "measuring"
	default:
		return "unknown"
	}
}

// Console is the multiplexed operator console.
type Console interface {
	Poll() (console.Event, bool)
	Broadcast(text string)
	Printf(format string, args ...any)
	Toggle(id int) bool
	Name(id int) string
	Len() int
}

// Options configures a Controller.
type Options struct {
	SampleInterval time.Duration
	BurnThreshold  float64 // N
	IdleSleep      time.Duration
	ShortHeader    bool
	ToggleChannel  int // Channel id flipped by 'b'; negative disables the command
	Now            func() time.Time
}

// Controller owns every piece of mutable session state and is driven one
// iteration at a time by Step. It is not safe for concurrent use.
type Controller struct {
	src   loadcell.Source
	con   Console
	logs  *storage.Log
	store calibration.Store
	meter *meter.Meter

	state       State
	pacer       *sample.Pacer
	plotter     bool
	shortHeader bool
	toggle      int
	tarePending bool
	begun       bool

	file      *storage.File
	fileName  string
	fileIndex uint32
	started   time.Time

	wizard *calibration.Wizard

	now       func() time.Time
	idleSleep time.Duration
}

// New creates a Controller in Standby.
func New(src loadcell.Source, con Console, logs *storage.Log, store calibration.Store, opts Options) *Controller {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 20 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		src:         src,
		con:         con,
		logs:        logs,
		store:       store,
		meter:       meter.New(opts.BurnThreshold),
		pacer:       sample.NewPacer(opts.SampleInterval),
		shortHeader: opts.ShortHeader,
		toggle:      opts.ToggleChannel,
		now:         opts.Now,
		idleSleep:   opts.IdleSleep,
	}
}

// State returns the current run state.
func (c *Controller) State() State { return c.state }

// Logging reports whether a measuring session has an open log.
func (c *Controller) Logging() bool { return c.file != nil }

// LogName returns the name of the open log, or the next name to be used.
func (c *Controller) LogName() string { return c.fileName }

// FileIndex returns the sequence number of LogName.
func (c *Controller) FileIndex() uint32 { return c.fileIndex }

// Plotter reports whether samples are formatted for a serial plotter.
func (c *Controller) Plotter() bool { return c.plotter }

// Begin probes storage for the next log name and prints the menu.
func (c *Controller) Begin() {
	c.begun = true
	c.probe()
	c.menu()
}

// Run steps the controller until ctx is done. The log is closed on every
// exit path, including a panic unwinding through Run.
func (c *Controller) Run(ctx context.Context) error {
	defer c.Close()

	if !c.begun {
		c.Begin()
	}

	var tick <-chan time.Time
	if c.idleSleep > 0 {
		ticker := time.NewTicker(c.idleSleep)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		c.Step()
		if tick == nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		}
	}
}

// Close abandons a running calibration and closes the log if one is open.
// The controller is left in Standby.
func (c *Controller) Close() {
	if c.wizard != nil {
		c.wizard.Cancel()
		c.wizard = nil
	}
	if c.state == Measuring {
		c.closeLog()
	}
	c.state = Standby
}

// Step runs one loop iteration: poll the sensor, emit a paced sample while
// measuring, then dispatch at most one command byte. While calibrating the
// wizard owns the iteration and no samples are emitted.
func (c *Controller) Step() {
	if c.state == Calibrating {
		c.stepWizard()
		return
	}

	if c.src.Update() {
		c.onReading()
	}
	if c.tarePending && c.src.TareComplete() {
		c.tarePending = false
		c.con.Printf("Tare complete")
	}

	if ev, ok := c.con.Poll(); ok {
		c.dispatch(ev)
	}
}

func (c *Controller) stepWizard() {
	c.wizard.Step()
	if !c.wizard.Finished() {
		return
	}
	c.wizard = nil
	c.tarePending = false
	c.state = Standby
	c.con.Printf("Standby, send 'm' for the menu")
}

func (c *Controller) onReading() {
	if c.state != Measuring {
		return
	}
	now := c.now()
	if !c.pacer.Ready(now) {
		return
	}

	s := sample.New(now.Sub(c.started), c.src.WeightGrams())
	if c.plotter {
		c.con.Broadcast(s.PlotterLine())
	} else {
		c.con.Broadcast(s.Row())
	}
	c.meter.Add(s)

	if c.file == nil {
		return
	}
	if err := c.file.Append(s); err != nil {
		log.Printf("session: append %s: %v", c.fileName, err)
		c.con.Printf("Warning: failed to write %s: %v", c.fileName, err)
	}
}

func (c *Controller) dispatch(ev console.Event) {
	switch ev.Code {
	case 's':
		c.start()
	case 'x':
		c.stop()
	case 'r':
		c.calibrate(calibration.Full)
	case 'c':
		c.calibrate(calibration.Manual)
	case 't':
		c.src.RequestTare()
		c.tarePending = true
		c.con.Printf("Taring...")
	case 'p':
		c.plotter = !c.plotter
		c.con.Printf("Plotter output %s", onOff(c.plotter))
	case 'b':
		c.toggleChannel()
	case 'd':
		c.selfTest()
	case 'l':
		c.listLogs()
	case 'm':
		c.menu()
	}
}

func (c *Controller) start() {
	if c.state == Measuring {
		c.con.Printf("Already measuring (%s), send 'x' to stop", c.describeLog())
		return
	}

	file, err := c.openLog()
	if err != nil {
		log.Printf("session: open log: %v", err)
		c.con.Printf("Storage unavailable (%v), measuring without logging", err)
	} else {
		c.file = file
		c.con.Printf("Logging to %s", c.fileName)
	}

	c.started = c.now()
	c.pacer.Reset()
	c.meter.Reset()
	c.state = Measuring
	if !c.plotter {
		c.con.Broadcast(sample.HeaderFor(c.shortHeader))
	}
}

func (c *Controller) openLog() (*storage.File, error) {
	name, index, err := c.logs.AllocateName()
	if err != nil {
		return nil, err
	}
	c.fileName = name
	c.fileIndex = index
	return c.logs.Open(name)
}

func (c *Controller) stop() {
	if c.state != Measuring {
		c.con.Printf("Not measuring, send 's' to start")
		return
	}
	c.closeLog()
	c.state = Standby

	c.con.Printf("*** Test finished")
	for _, line := range c.meter.Summary().Lines() {
		c.con.Broadcast(line)
	}
	c.probe()
}

func (c *Controller) closeLog() {
	if c.file == nil {
		return
	}
	rows := c.file.Rows()
	if err := c.file.Close(); err != nil {
		log.Printf("session: close %s: %v", c.fileName, err)
		c.con.Printf("Warning: failed to close %s: %v", c.fileName, err)
	} else {
		c.con.Printf("Saved %d rows to %s", rows, c.fileName)
	}
	c.file = nil
}

func (c *Controller) calibrate(mode calibration.Mode) {
	if c.state != Standby {
		c.con.Printf("Stop measuring before calibrating")
		return
	}
	c.state = Calibrating
	c.wizard = calibration.New(c.src, c.con, c.store, mode)
}

func (c *Controller) toggleChannel() {
	if c.toggle < 0 || c.toggle >= c.con.Len() {
		c.con.Printf("No console channel to toggle")
		return
	}
	name := c.con.Name(c.toggle)
	if c.con.Toggle(c.toggle) {
		c.con.Printf("Console %s enabled", name)
	} else {
		c.con.Printf("Console %s disabled", name)
	}
}

func (c *Controller) selfTest() {
	if err := c.logs.SelfTest(); err != nil {
		log.Printf("session: storage self-test: %v", err)
		c.con.Printf("Storage self-test FAILED: %v", err)
		return
	}
	c.con.Printf("Storage self-test passed")
}

func (c *Controller) listLogs() {
	entries, err := c.logs.List()
	if err != nil {
		c.con.Printf("Storage unavailable: %v", err)
		return
	}
	if len(entries) == 0 {
		c.con.Printf("No logs stored")
		return
	}
	for _, e := range entries {
		c.con.Printf("%s\t%d bytes", e.Name, e.Size)
	}
}

// probe refreshes the next log name so the operator sees it before starting.
func (c *Controller) probe() {
	name, index, err := c.logs.AllocateName()
	if err != nil {
		log.Printf("session: probe storage: %v", err)
		c.fileName = ""
		return
	}
	c.fileName = name
	c.fileIndex = index
}

func (c *Controller) describeLog() string {
	if c.file == nil {
		return "not logging"
	}
	return "logging to " + c.fileName
}

func (c *Controller) menu() {
	toggle := "none"
	if c.toggle >= 0 && c.toggle < c.con.Len() {
		toggle = c.con.Name(c.toggle)
	}
	next := c.fileName
	if next == "" {
		next = "storage unavailable"
	}

	c.con.Printf("*** Thrust stand, calibration factor %.2f", c.src.CalibrationFactor())
	for _, line := range []string{
		"t - tare",
		"r - calibrate with a known mass",
		"c - enter calibration factor",
		"s - start measuring",
		"x - stop measuring",
		"p - toggle plotter output",
		fmt.Sprintf("b - toggle %s console", toggle),
		"d - storage self-test",
		"l - list logs",
		"m - this menu",
	} {
		c.con.Broadcast(line)
	}
	c.con.Printf("Next log: %s", next)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
