package sample

import (
	"strconv"
	"time"
)

// NewtonsPerGram converts grams-force to newtons.
const NewtonsPerGram = 0.009806

// CSV headers written at the top of every log file.
const (
	Header      = "Time(s),Weight(g),Force(N)"
	ShortHeader = "t,w,f"
)

// Sample represents one emitted measurement with physical values.
type Sample struct {
	Time   float64 // Seconds since the session started
	Weight float64 // Filtered weight (g)
	Force  float64 // Force (N)
}

// New creates a Sample for a weight reading taken elapsed after session start.
func New(elapsed time.Duration, weightGrams float64) Sample {
	return Sample{
		Time:   elapsed.Seconds(),
		Weight: weightGrams,
		Force:  weightGrams * NewtonsPerGram,
	}
}

// Record returns the CSV fields of the sample: time with 3 decimals, weight
// with 2 and force with 3.
func (s Sample) Record() []string {
	return []string{
		strconv.FormatFloat(s.Time, 'f', 3, 64),
		strconv.FormatFloat(s.Weight, 'f', 2, 64),
		strconv.FormatFloat(s.Force, 'f', 3, 64),
	}
}

// Row formats the sample as a CSV data row without a line terminator.
func (s Sample) Row() string {
	r := s.Record()
	return r[0] + "," + r[1] + "," + r[2]
}

// PlotterLine formats the sample as labelled values understood by serial
// plotters. Values are identical to Row; only the layout differs.
func (s Sample) PlotterLine() string {
	r := s.Record()
	return "Weight(g):" + r[1] + "\tForce(N):" + r[2]
}

// HeaderFor returns the CSV header for the short or descriptive variant.
func HeaderFor(short bool) string {
	if short {
		return ShortHeader
	}
	return Header
}
