package facility

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"shipdesk/internal/quote"
)

// Facility is a fulfillment origin point. Reference data only; loaded
// from configuration and never mutated by the engine.
type Facility struct {
	Name string `yaml:"name" json:"name"`
	Zip  string `yaml:"zip" json:"zip"`
}

// Directory is the ordered facility list. Order is significant: the
// locator breaks distance ties by position. Reload swaps the whole
// slice under the lock so readers never see a partial list.
type Directory struct {
	mu         sync.RWMutex
	facilities []Facility
}

func NewDirectory(facilities []Facility) *Directory {
	d := &Directory{}
	d.replace(facilities)
	return d
}

type directoryFile struct {
	Facilities []Facility `yaml:"facilities"`
}

// LoadDirectory reads the YAML facility file.
func LoadDirectory(path string) (*Directory, error) {
	d := &Directory{}
	if err := d.ReloadFrom(path); err != nil {
		return nil, err
	}
	return d, nil
}

// ReloadFrom re-reads the facility file, replacing the directory
// atomically on success and leaving it untouched on failure.
func (d *Directory) ReloadFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading facility file: %w", err)
	}
	var parsed directoryFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parsing facility file %s: %w", path, err)
	}
	cleaned := make([]Facility, 0, len(parsed.Facilities))
	for i, f := range parsed.Facilities {
		f.Name = strings.TrimSpace(f.Name)
		f.Zip = strings.TrimSpace(f.Zip)
		if f.Name == "" {
			return fmt.Errorf("facility %d has no name", i)
		}
		if err := quote.ValidateZip(f.Zip); err != nil {
			return fmt.Errorf("facility %q: %w", f.Name, err)
		}
		cleaned = append(cleaned, f)
	}
	d.replace(cleaned)
	return nil
}

func (d *Directory) replace(facilities []Facility) {
	d.mu.Lock()
	d.facilities = facilities
	d.mu.Unlock()
}

// Facilities returns a copy of the current list in directory order.
func (d *Directory) Facilities() []Facility {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Facility, len(d.facilities))
	copy(out, d.facilities)
	return out
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.facilities)
}
