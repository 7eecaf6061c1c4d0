// Package report renders and persists the outcome of a weight estimate.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"weight-estimator/pkg/geometry"
)

// RecordVersion is the schema version written into run records.
const RecordVersion = 1

// Record is the persisted outcome of one pipeline run.
type Record struct {
	Version      int               `json:"version"`
	RunID        string            `json:"run_id"`
	Created      time.Time         `json:"created"`
	Label        string            `json:"label"`
	WeightGrams  float64           `json:"weight_g"`
	VolumeCm3    float64           `json:"volume_cm3"`
	DensityGCm3  float64           `json:"density_g_cm3"`
	DensityTier  string            `json:"density_tier"`
	AreaPixels   int               `json:"area_px"`
	BoundingBox  *geometry.RectInt `json:"bounding_box,omitempty"`
	ScaleCmPerPx float64           `json:"scale_cm_per_px"`
	ScaleSource  string            `json:"scale_source"`
	SourceImage  string            `json:"source_image,omitempty"`
	OutputImage  string            `json:"output_image,omitempty"`
	ToolVersion  string            `json:"tool_version,omitempty"`
}

// Summary is the one-line human readable result.
func (r Record) Summary() string {
	return fmt.Sprintf("Estimated Weight: %.2f grams", r.WeightGrams)
}

// LoadRecord loads a record from a JSON file.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", path, err)
	}

	return &rec, nil
}

// SaveRecord writes the record as indented JSON, creating parent directories.
func SaveRecord(rec Record, path string) error {
	if rec.Version == 0 {
		rec.Version = RecordVersion
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
