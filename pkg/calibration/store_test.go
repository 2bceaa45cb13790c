package calibration

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Load() float64       { return 217.84 }
func (failingStore) Save(float64) error { return errors.New("read-only") }

func TestFileStore_LoadDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero", "calibration_factor: 0\n"},
		{"negative", "calibration_factor: -12.5\n"},
		{"nan", "calibration_factor: .nan\n"},
		{"inf", "calibration_factor: .inf\n"},
		{"missing key", "other: 1\n"},
		{"invalid yaml", "calibration_factor: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "calibration.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			assert.Equal(t, 217.84, NewFileStore(path, 217.84).Load())
		})
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "none.yaml"), 217.84)
	assert.Equal(t, 217.84, s.Load())
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.yaml")
	s := NewFileStore(path, 217.84)

	require.NoError(t, s.Save(231.5))
	assert.Equal(t, 231.5, s.Load())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "calibration_factor: 231.5")
}

func TestFileStore_SaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.yaml")
	s := NewFileStore(path, 217.84)

	for _, f := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.Error(t, s.Save(f), "factor %v", f)
	}
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMemory(t *testing.T) {
	m := &Memory{Def: 217.84}
	assert.Equal(t, 217.84, m.Load())

	require.NoError(t, m.Save(200))
	assert.Equal(t, 200.0, m.Load())
	assert.Equal(t, 1, m.Saves)

	assert.Error(t, m.Save(0))
	assert.Equal(t, 200.0, m.Load())
}
