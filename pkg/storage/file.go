package storage

import (
	"encoding/csv"
	"errors"
	"strings"

	"github.com/spf13/afero"

	"github.com/itohio/gothrust/pkg/sample"
)

// File is an open CSV log. At most flushEvery appended rows are ever
// buffered in memory.
type File struct {
	f          afero.File
	w          *csv.Writer
	name       string
	flushEvery int
	rows       int
	unflushed  int
}

func newFile(f afero.File, name string, flushEvery int) *File {
	return &File{
		f:          f,
		w:          csv.NewWriter(f),
		name:       name,
		flushEvery: flushEvery,
	}
}

func (f *File) writeHeader(short bool) error {
	if err := f.w.Write(strings.Split(sample.HeaderFor(short), ",")); err != nil {
		return err
	}
	return f.Flush()
}

// Name returns the file path.
func (f *File) Name() string {
	if f == nil {
		return ""
	}
	return f.name
}

// Rows returns the number of data rows appended.
func (f *File) Rows() int {
	if f == nil {
		return 0
	}
	return f.rows
}

// Append writes one data row and flushes every flushEvery rows. A flush
// error is returned but the row count still advances; the file stays usable.
func (f *File) Append(s sample.Sample) error {
	if err := f.w.Write(s.Record()); err != nil {
		return err
	}
	f.rows++
	f.unflushed++
	if f.unflushed >= f.flushEvery {
		return f.Flush()
	}
	return nil
}

// Flush pushes buffered rows to the medium and syncs it.
func (f *File) Flush() error {
	f.unflushed = 0
	f.w.Flush()
	if err := f.w.Error(); err != nil {
		return err
	}
	return f.f.Sync()
}

// Close flushes and closes the file. Closing a nil File is a no-op so the
// unlogged session path can share the same exit code.
func (f *File) Close() error {
	if f == nil || f.f == nil {
		return nil
	}
	flushErr := f.Flush()
	closeErr := f.f.Close()
	f.f = nil
	return errors.Join(flushErr, closeErr)
}
