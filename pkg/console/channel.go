package console

import (
	"errors"
	"sync"
)

// ErrNoByte is returned by ReadByte when nothing is buffered.
var ErrNoByte = errors.New("console: no byte available")

// DefaultQueueSize is the number of input bytes buffered per channel.
const DefaultQueueSize = 256

// Channel is one physical command/output transport.
type Channel interface {
	Name() string
	// HasByte reports whether ReadByte would return a byte. It never blocks.
	HasByte() bool
	ReadByte() (byte, error)
	WriteLine(text string) error
	Close() error
}

// Ensure transports implement Channel.
var (
	_ Channel = (*Stream)(nil)
	_ Channel = (*Serial)(nil)
	_ Channel = (*MQTT)(nil)
	_ Channel = (*Buffer)(nil)
)

// byteQueue hands bytes from a transport goroutine to the polling loop.
type byteQueue struct {
	ch      chan byte
	done    chan struct{}
	once    sync.Once
	pending byte
	has     bool
}

func newByteQueue(size int) *byteQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &byteQueue{
		ch:   make(chan byte, size),
		done: make(chan struct{}),
	}
}

// offer queues b without blocking and reports whether it was accepted.
func (q *byteQueue) offer(b byte) bool {
	select {
	case q.ch <- b:
		return true
	default:
		return false
	}
}

// put queues b, waiting for room until the queue is stopped.
func (q *byteQueue) put(b byte) bool {
	select {
	case q.ch <- b:
		return true
	case <-q.done:
		return false
	}
}

func (q *byteQueue) hasByte() bool {
	if q.has {
		return true
	}
	select {
	case b := <-q.ch:
		q.pending = b
		q.has = true
		return true
	default:
		return false
	}
}

func (q *byteQueue) readByte() (byte, error) {
	if !q.hasByte() {
		return 0, ErrNoByte
	}
	q.has = false
	return q.pending, nil
}

func (q *byteQueue) stop() {
	q.once.Do(func() { close(q.done) })
}
