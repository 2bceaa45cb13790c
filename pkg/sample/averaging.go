package sample

// Window is a moving average over the most recent raw conversions.
// The internal ring buffer is reused; no allocation happens after creation.
type Window struct {
	buf   []int32
	next  int
	count int
	sum   int64
}

// NewWindow creates a moving average over size conversions.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = 1 // No averaging if invalid
	}
	return &Window{buf: make([]int32, size)}
}

// Add pushes a conversion, evicting the oldest one once the window is full.
func (w *Window) Add(v int32) {
	if w.count == len(w.buf) {
		w.sum -= int64(w.buf[w.next])
	} else {
		w.count++
	}
	w.buf[w.next] = v
	w.sum += int64(v)
	w.next = (w.next + 1) % len(w.buf)
}

// Mean returns the average of the buffered conversions, or 0 if empty.
func (w *Window) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	return float64(w.sum) / float64(w.count)
}

// Len returns the number of buffered conversions.
func (w *Window) Len() int {
	return w.count
}

// Full reports whether the window holds size conversions.
func (w *Window) Full() bool {
	return w.count == len(w.buf)
}

// Reset drops all buffered conversions.
func (w *Window) Reset() {
	w.next = 0
	w.count = 0
	w.sum = 0
}
