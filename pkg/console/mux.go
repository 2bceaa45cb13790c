package console

import (
	"errors"
	"fmt"
	"log"
)

// Event is one command byte and the channel it arrived on.
type Event struct {
	Code   byte
	Origin int
}

type entry struct {
	ch      Channel
	enabled bool
}

// Mux presents several channels as one logical console. Channel ids are
// assigned in registration order and are also the polling order.
type Mux struct {
	entries []entry
}

// NewMux creates an empty console.
func NewMux() *Mux {
	return &Mux{}
}

// Add registers a channel and returns its id.
func (m *Mux) Add(ch Channel, enabled bool) int {
	m.entries = append(m.entries, entry{ch: ch, enabled: enabled})
	return len(m.entries) - 1
}

// Len returns the number of registered channels.
func (m *Mux) Len() int {
	return len(m.entries)
}

// Lookup returns the id of the channel with the given name.
func (m *Mux) Lookup(name string) (int, bool) {
	for id, e := range m.entries {
		if e.ch.Name() == name {
			return id, true
		}
	}
	return 0, false
}

// Name returns the name of channel id.
func (m *Mux) Name(id int) string {
	if !m.valid(id) {
		return ""
	}
	return m.entries[id].ch.Name()
}

// Enabled reports whether channel id is polled and written to.
func (m *Mux) Enabled(id int) bool {
	return m.valid(id) && m.entries[id].enabled
}

// SetEnabled enables or disables channel id. The transport stays open.
func (m *Mux) SetEnabled(id int, enabled bool) {
	if m.valid(id) {
		m.entries[id].enabled = enabled
	}
}

// Toggle flips channel id and returns its new state.
func (m *Mux) Toggle(id int) bool {
	if !m.valid(id) {
		return false
	}
	m.entries[id].enabled = !m.entries[id].enabled
	return m.entries[id].enabled
}

// Poll checks every enabled channel once, in id order, and returns the first
// available byte.
func (m *Mux) Poll() (Event, bool) {
	for id, e := range m.entries {
		if !e.enabled || !e.ch.HasByte() {
			continue
		}
		b, err := e.ch.ReadByte()
		if err != nil {
			log.Printf("console: read %s: %v", e.ch.Name(), err)
			continue
		}
		return Event{Code: b, Origin: id}, true
	}
	return Event{}, false
}

// Broadcast writes text verbatim to every enabled channel. Write failures
// are logged and do not stop delivery to the other channels.
func (m *Mux) Broadcast(text string) {
	for _, e := range m.entries {
		if !e.enabled {
			continue
		}
		if err := e.ch.WriteLine(text); err != nil {
			log.Printf("console: write %s: %v", e.ch.Name(), err)
		}
	}
}

// Printf formats and broadcasts one line.
func (m *Mux) Printf(format string, args ...any) {
	m.Broadcast(fmt.Sprintf(format, args...))
}

// Close closes every channel, enabled or not.
func (m *Mux) Close() error {
	var errs []error
	for _, e := range m.entries {
		if err := e.ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", e.ch.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *Mux) valid(id int) bool {
	return id >= 0 && id < len(m.entries)
}
