package console

import "sync"

// Buffer is an in-memory channel. Input is fed with Feed and output lines are
// collected for inspection. It is used for bench runs and tests.
type Buffer struct {
	name  string
	q     *byteQueue
	mu    sync.Mutex
	lines []string
	err   error
}

// NewBuffer creates an in-memory channel.
func NewBuffer(name string) *Buffer {
	return &Buffer{name: name, q: newByteQueue(4096)}
}

// Feed queues input bytes. Bytes beyond the queue capacity are dropped.
func (b *Buffer) Feed(s string) {
	for i := 0; i < len(s); i++ {
		b.q.offer(s[i])
	}
}

// FailWrites makes every following WriteLine return err.
func (b *Buffer) FailWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

// Lines returns a copy of every line written so far.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Reset drops collected output.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = b.lines[:0]
}

// Name returns the channel name.
func (b *Buffer) Name() string { return b.name }

// HasByte reports whether fed input is waiting.
func (b *Buffer) HasByte() bool { return b.q.hasByte() }

// ReadByte returns the next fed byte or ErrNoByte.
func (b *Buffer) ReadByte() (byte, error) { return b.q.readByte() }

// WriteLine records text.
func (b *Buffer) WriteLine(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.lines = append(b.lines, text)
	return nil
}

// Close is a no-op.
func (b *Buffer) Close() error { return nil }
