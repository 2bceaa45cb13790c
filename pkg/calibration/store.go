package calibration

import (
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/itohio/gothrust/pkg/loadcell"
)

// Store persists the calibration factor across restarts.
type Store interface {
	// Load returns the persisted factor, or the default when none is valid.
	Load() float64
	// Save persists factor.
	Save(factor float64) error
}

type record struct {
	CalibrationFactor float64 `yaml:"calibration_factor"`
}

// FileStore keeps the factor in a small YAML file.
type FileStore struct {
	path string
	def  float64
}

// NewFileStore creates a FileStore at path falling back to def.
func NewFileStore(path string, def float64) *FileStore {
	return &FileStore{path: path, def: def}
}

// Load reads the factor. A missing file, unreadable YAML, or a zero,
// negative or non-finite value all yield the default.
func (s *FileStore) Load() float64 {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("calibration: read %s: %v", s.path, err)
		}
		return s.def
	}

	var r record
	if err := yaml.Unmarshal(data, &r); err != nil {
		log.Printf("calibration: parse %s: %v", s.path, err)
		return s.def
	}
	if !loadcell.ValidFactor(r.CalibrationFactor) {
		log.Printf("calibration: invalid factor %v in %s, using %.2f", r.CalibrationFactor, s.path, s.def)
		return s.def
	}
	return r.CalibrationFactor
}

// Save writes the factor.
func (s *FileStore) Save(factor float64) error {
	if !loadcell.ValidFactor(factor) {
		return fmt.Errorf("invalid calibration factor %v", factor)
	}
	data, err := yaml.Marshal(record{CalibrationFactor: factor})
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration: %w", err)
	}
	return nil
}

// Memory keeps the factor in memory only.
type Memory struct {
	Factor float64
	Def    float64
	Saves  int
}

// Load returns the stored factor or Def.
func (m *Memory) Load() float64 {
	if !loadcell.ValidFactor(m.Factor) {
		return m.Def
	}
	return m.Factor
}

// Save stores factor.
func (m *Memory) Save(factor float64) error {
	if !loadcell.ValidFactor(factor) {
		return fmt.Errorf("invalid calibration factor %v", factor)
	}
	m.Factor = factor
	m.Saves++
	return nil
}
