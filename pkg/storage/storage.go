package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

var (
	// ErrUnavailable means the medium is absent or not mounted.
	ErrUnavailable = errors.New("storage: medium not available")
	// ErrReadOnly means the medium is write-protected.
	ErrReadOnly = errors.New("storage: medium is write-protected")
	// ErrFull means the medium has no space left.
	ErrFull = errors.New("storage: medium is full")
)

const (
	// DefaultFlushEvery bounds the unflushed window to this many rows.
	DefaultFlushEvery = 20
	extension         = ".CSV"
)

// Options configures a Log.
type Options struct {
	Dir         string
	Prefix      string
	FlushEvery  int
	ShortHeader bool
}

// Entry is one stored log file.
type Entry struct {
	Name  string
	Index uint32
	Size  int64
}

// Log allocates sequential file names on a medium and opens CSV log files.
type Log struct {
	fs          afero.Fs
	dir         string
	prefix      string
	flushEvery  int
	shortHeader bool
	last        uint32 // last known index
}

// New creates a Log on fsys.
func New(fsys afero.Fs, opts Options) *Log {
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = DefaultFlushEvery
	}
	if opts.Prefix == "" {
		opts.Prefix = "T"
	}
	return &Log{
		fs:          fsys,
		dir:         opts.Dir,
		prefix:      opts.Prefix,
		flushEvery:  opts.FlushEvery,
		shortHeader: opts.ShortHeader,
	}
}

// NewOS creates a Log on the host filesystem.
func NewOS(opts Options) *Log {
	return New(afero.NewOsFs(), opts)
}

// Name returns the path of the log file with the given index.
func (l *Log) Name(index uint32) string {
	return filepath.Join(l.dir, l.prefix+strconv.FormatUint(uint64(index), 10)+extension)
}

// AllocateName returns the first name not present on the medium, scanning
// upward from the last known index. It never returns an existing file.
func (l *Log) AllocateName() (string, uint32, error) {
	if err := l.available(); err != nil {
		return "", 0, err
	}
	for index := l.last; ; index++ {
		name := l.Name(index)
		exists, err := afero.Exists(l.fs, name)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if !exists {
			l.last = index
			return name, index, nil
		}
		if index == ^uint32(0) {
			return "", 0, ErrFull
		}
	}
}

// Open creates the named log file and writes the CSV header. It refuses to
// overwrite an existing file.
func (l *Log) Open(name string) (*File, error) {
	if err := l.available(); err != nil {
		return nil, err
	}
	f, err := l.fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, classify(err)
	}
	file := newFile(f, name, l.flushEvery)
	if err := file.writeHeader(l.shortHeader); err != nil {
		f.Close()
		return nil, classify(err)
	}
	return file, nil
}

// List returns the stored log files ordered by index.
func (l *Log) List() ([]Entry, error) {
	if err := l.available(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(l.fs, l.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var out []Entry
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		index, ok := l.parseName(info.Name())
		if !ok {
			continue
		}
		out = append(out, Entry{Name: info.Name(), Index: index, Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (l *Log) parseName(base string) (uint32, bool) {
	if !strings.HasPrefix(base, l.prefix) || !strings.HasSuffix(base, extension) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(base, l.prefix), extension)
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

func (l *Log) available() error {
	info, err := l.fs.Stat(l.dir)
	if err != nil || !info.IsDir() {
		return ErrUnavailable
	}
	return nil
}

// classify maps medium errors onto the storage sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return fmt.Errorf("%w: %v", ErrFull, err)
	case errors.Is(err, syscall.EROFS), errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrReadOnly, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
