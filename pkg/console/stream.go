package console

import (
	"errors"
	"io"
	"log"
	"os"
	"sync"
)

// Stream is a channel over any byte stream, e.g. stdin/stdout or a UART.
type Stream struct {
	name   string
	w      io.Writer
	closer io.Closer
	eol    string
	q      *byteQueue
	mu     sync.Mutex
}

// NewStream creates a channel reading commands from r and writing lines to w.
// If closer is not nil it is closed by Close.
func NewStream(name string, r io.Reader, w io.Writer, closer io.Closer) *Stream {
	s := &Stream{
		name:   name,
		w:      w,
		closer: closer,
		eol:    "\n",
		q:      newByteQueue(DefaultQueueSize),
	}
	if r != nil {
		go s.pump(r)
	}
	return s
}

// NewStdio creates the local terminal channel.
func NewStdio() *Stream {
	return NewStream("stdio", os.Stdin, os.Stdout, nil)
}

// Name returns the channel name.
func (s *Stream) Name() string { return s.name }

// HasByte reports whether a command byte is waiting.
func (s *Stream) HasByte() bool { return s.q.hasByte() }

// ReadByte returns the next command byte or ErrNoByte.
func (s *Stream) ReadByte() (byte, error) { return s.q.readByte() }

// WriteLine writes text followed by the line terminator.
func (s *Stream) WriteLine(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return nil
	}
	_, err := io.WriteString(s.w, text+s.eol)
	return err
}

// Close stops reading and closes the underlying transport if owned.
func (s *Stream) Close() error {
	s.q.stop()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *Stream) pump(r io.Reader) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if !s.q.put(b) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				log.Printf("console: %s read: %v", s.name, err)
			}
			return
		}
	}
}
