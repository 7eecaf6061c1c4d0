// Package density maps object labels to material densities.
package density

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultKey is the reserved table entry used when a label is unknown.
const DefaultKey = "default"

// Record is one table entry.
type Record struct {
	DensityGCm3 float64 `json:"density_g_cm3" yaml:"density_g_cm3"`
	Notes       string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Table is a label -> record mapping. Keys are stored lowercase.
type Table map[string]Record

// LoadTable reads a density table from fsys. The format follows the file
// extension: .yaml/.yml are YAML, anything else is JSON.
func LoadTable(fsys fs.FS, path string) (Table, error) {
	if fsys == nil {
		return nil, fmt.Errorf("read density table: no filesystem")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read density table: %w", err)
	}

	raw := map[string]Record{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse density table %s: %w", path, err)
	}

	// Keys are folded in sorted order. A key already in canonical form wins
	// over any other spelling of the same label.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := make(Table, len(raw))
	for _, k := range keys {
		label := normalize(k)
		if _, seen := t[label]; seen && k != label {
			continue
		}
		t[label] = raw[k]
	}
	return t, nil
}

// Lookup returns the density for a label if the table has a usable record.
func (t Table) Lookup(label string) (float64, bool) {
	rec, ok := t[normalize(label)]
	if !ok || rec.DensityGCm3 <= 0 {
		return 0, false
	}
	return rec.DensityGCm3, true
}

// Labels returns the known labels in sorted order, excluding the default entry.
func (t Table) Labels() []string {
	labels := make([]string, 0, len(t))
	for k := range t {
		if k == DefaultKey {
			continue
		}
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
