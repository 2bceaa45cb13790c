package storage

import (
	"bytes"
	"fmt"

	"github.com/spf13/afero"
)

// SelfTestMarker is written to and read back from the medium by SelfTest.
const SelfTestMarker = "THRUST STAND SELF-TEST 0123456789 ABCDEFGHIJKLMNOPQRSTUVWXYZ\n"

// SelfTest writes SelfTestMarker to a temporary file, reads it back byte for
// byte and removes the file. Nothing else on the medium is touched.
func (l *Log) SelfTest() error {
	if err := l.available(); err != nil {
		return err
	}

	f, err := afero.TempFile(l.fs, l.dir, "SELF*.TMP")
	if err != nil {
		return fmt.Errorf("create: %w", classify(err))
	}
	name := f.Name()
	defer l.fs.Remove(name)

	if _, err := f.WriteString(SelfTestMarker); err != nil {
		f.Close()
		return fmt.Errorf("write: %w", classify(err))
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	got, err := afero.ReadFile(l.fs, name)
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	if !bytes.Equal(got, []byte(SelfTestMarker)) {
		return fmt.Errorf("read back mismatch: wrote %d bytes, read %d", len(SelfTestMarker), len(got))
	}

	if err := l.fs.Remove(name); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
