package scenario

import (
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"gopkg.in/yaml.v3"
)

// Entry is one scenario input in a comparison file.
type Entry struct {
	Name  string              `yaml:"name,omitempty"`
	Input model.InputSnapshot `yaml:",inline"`
}

// Label is the entry name, or AutoName when unset.
func (e Entry) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return AutoName(e.Input)
}

type fileDoc struct {
	Scenarios []yaml.Node `yaml:"scenarios"`
}

type fileOut struct {
	Scenarios []Entry `yaml:"scenarios"`
}

// Decode reads a comparison file. Fields an entry omits keep their value
// from defaults. At most capacity entries are accepted.
func Decode(r io.Reader, defaults model.InputSnapshot, capacity int) ([]Entry, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	var doc fileDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse scenario file: %w", common.ErrValidation, err)
	}
	if len(doc.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: scenario file has no scenarios", common.ErrValidation)
	}
	if len(doc.Scenarios) > capacity {
		return nil, fmt.Errorf("%w: scenario file has %d scenarios, at most %d are compared",
			common.ErrCapacity, len(doc.Scenarios), capacity)
	}

	entries := make([]Entry, 0, len(doc.Scenarios))
	for i := range doc.Scenarios {
		e := Entry{Input: defaults}
		if err := doc.Scenarios[i].Decode(&e); err != nil {
			return nil, fmt.Errorf("%w: scenario %d: %w", common.ErrValidation, i+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Load reads a comparison file from path.
func Load(path string, defaults model.InputSnapshot, capacity int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario file: %w", err)
	}
	defer f.Close()
	return Decode(f, defaults, capacity)
}

// Encode writes entries in the format Decode reads.
func Encode(w io.Writer, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fileOut{Scenarios: entries}); err != nil {
		return fmt.Errorf("failed to encode scenarios: %w", err)
	}
	return enc.Close()
}

// Save writes the inputs of the stored scenarios to path.
func Save(path string, scenarios []Scenario) error {
	entries := make([]Entry, 0, len(scenarios))
	for _, sc := range scenarios {
		entries = append(entries, Entry{Name: sc.Name(), Input: sc.Input()})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create scenario file: %w", err)
	}
	if err := Encode(f, entries); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
