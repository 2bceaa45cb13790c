package meter

import (
	"fmt"

	"github.com/itohio/gothrust/pkg/sample"
)

// Burn is a contiguous stretch of samples with force above the threshold,
// widened by one sample on each side so the rise and tail-off are integrated.
type Burn struct {
	StartIndex int     // Index of the last sample before force rose above threshold
	EndIndex   int     // Index of the last sample in the burn (updated while it continues)
	Start      float64 // Start time (s)
	End        float64 // End time (s)
	Peak       float64 // Peak force (N)
	Impulse    float64 // Integrated force (N·s)
	active     bool
}

// Duration returns the burn time in seconds.
func (b Burn) Duration() float64 {
	return b.End - b.Start
}

// Summary is the result of one measuring session.
type Summary struct {
	Samples      int
	Duration     float64 // Time covered by the samples (s)
	PeakForce    float64 // N
	PeakTime     float64 // s
	TotalImpulse float64 // N·s, summed over burns
	BurnTime     float64 // s, summed over burns
	Burns        []Burn
}

// AverageThrust returns the mean force over the burn time.
func (s Summary) AverageThrust() float64 {
	if s.BurnTime <= 0 {
		return 0
	}
	return s.TotalImpulse / s.BurnTime
}

// Class returns the motor impulse class letter for the total impulse.
func (s Summary) Class() string {
	return ImpulseClass(s.TotalImpulse)
}

// Lines formats the summary for the operator console.
func (s Summary) Lines() []string {
	lines := []string{
		fmt.Sprintf("Samples: %d over %.3f s", s.Samples, s.Duration),
		fmt.Sprintf("Peak force: %.3f N at %.3f s", s.PeakForce, s.PeakTime),
	}
	if len(s.Burns) == 0 {
		return append(lines, "No burn detected")
	}
	return append(lines,
		fmt.Sprintf("Burns: %d, burn time %.3f s", len(s.Burns), s.BurnTime),
		fmt.Sprintf("Total impulse: %.3f Ns (%s), average thrust %.3f N", s.TotalImpulse, s.Class(), s.AverageThrust()),
	)
}

// Meter accumulates samples of one session and detects burns.
// It is not safe for concurrent use; the session loop owns it.
type Meter struct {
	threshold float64

	count int
	first sample.Sample
	prev  sample.Sample

	peak     float64
	peakTime float64
	burns    []Burn
}

// New creates a Meter detecting burns above threshold newtons.
func New(threshold float64) *Meter {
	return &Meter{threshold: threshold}
}

// Reset discards everything seen so far.
func (m *Meter) Reset() {
	m.count = 0
	m.first = sample.Sample{}
	m.prev = sample.Sample{}
	m.peak = 0
	m.peakTime = 0
	m.burns = nil
}

// Add folds one sample into the running statistics.
func (m *Meter) Add(s sample.Sample) {
	idx := m.count
	m.count++

	if idx == 0 {
		m.first = s
		m.peak = s.Force
		m.peakTime = s.Time
	} else if s.Force > m.peak {
		m.peak = s.Force
		m.peakTime = s.Time
	}

	m.updateBurns(idx, s)
	m.prev = s
}

func (m *Meter) updateBurns(idx int, s sample.Sample) {
	above := s.Force > m.threshold

	var active *Burn
	if n := len(m.burns); n > 0 && m.burns[n-1].active {
		active = &m.burns[n-1]
	}

	if active == nil {
		if !above {
			return
		}
		// Start one sample early so the rising edge is integrated.
		b := Burn{StartIndex: idx, EndIndex: idx, Start: s.Time, End: s.Time, Peak: s.Force, active: true}
		if idx > 0 {
			b.StartIndex = idx - 1
			b.Start = m.prev.Time
			b.Impulse = trapezoid(m.prev, s)
		}
		m.burns = append(m.burns, b)
		return
	}

	active.EndIndex = idx
	active.End = s.Time
	active.Impulse += trapezoid(m.prev, s)
	if s.Force > active.Peak {
		active.Peak = s.Force
	}
	if !above {
		active.active = false
	}
}

func trapezoid(a, b sample.Sample) float64 {
	return (a.Force + b.Force) / 2 * (b.Time - a.Time)
}

// Burns returns a copy of the detected burns.
func (m *Meter) Burns() []Burn {
	result := make([]Burn, len(m.burns))
	copy(result, m.burns)
	return result
}

// Summary returns the statistics of the samples seen so far.
func (m *Meter) Summary() Summary {
	s := Summary{
		Samples:   m.count,
		PeakForce: m.peak,
		PeakTime:  m.peakTime,
		Burns:     m.Burns(),
	}
	if m.count > 1 {
		s.Duration = m.prev.Time - m.first.Time
	}
	for _, b := range m.burns {
		s.TotalImpulse += b.Impulse
		s.BurnTime += b.Duration()
	}
	return s
}

// ImpulseClass returns the model rocket motor class for a total impulse in
// N·s: 1/4A up to 0.3125, 1/2A up to 0.625, A up to 1.25, then one letter
// per doubling.
func ImpulseClass(impulse float64) string {
	switch {
	case impulse <= 0:
		return "-"
	case impulse <= 0.3125:
		return "1/4A"
	case impulse <= 0.625:
		return "1/2A"
	}
	limit := 1.25
	class := 'A'
	for impulse > limit && class < 'Z' {
		limit *= 2
		class++
	}
	return string(class)
}
