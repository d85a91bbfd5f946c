// Package pricing turns an enclosed model volume into a print cost estimate.
package pricing

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Material holds the per-material rates.
type Material struct {
	CostPerKg float64 `yaml:"cost_per_kg" json:"cost_per_kg"`
	Density   float64 `yaml:"density_g_cm3" json:"density_g_cm3"`
}

// Quality holds the per-quality rates. ShellFactor is the share of the
// solid volume taken by walls; FlowRate is the extrusion rate in mm³/s.
type Quality struct {
	ShellFactor float64 `yaml:"shell_factor" json:"shell_factor"`
	FlowRate    float64 `yaml:"flow_rate_mm3_s" json:"flow_rate_mm3_s"`
}

// RateTable is the immutable pricing configuration. Treat a loaded table as
// read-only; reloads build a new table.
type RateTable struct {
	Currency           string              `yaml:"currency" json:"currency"`
	Materials          map[string]Material `yaml:"materials" json:"materials"`
	Qualities          map[string]Quality  `yaml:"qualities" json:"qualities"`
	DefaultMaterial    string              `yaml:"default_material" json:"default_material"`
	DefaultQuality     string              `yaml:"default_quality" json:"default_quality"`
	InfillEfficiency   float64             `yaml:"infill_efficiency" json:"infill_efficiency"`
	MachineRatePerHour float64             `yaml:"machine_rate_per_hour" json:"machine_rate_per_hour"`
	SetupFee           int64               `yaml:"setup_fee" json:"setup_fee"`
	MinJobPrice        float64             `yaml:"min_job_price" json:"min_job_price"`
	SupportFactor      float64             `yaml:"support_factor" json:"support_factor"`
}

// DefaultRateTable returns the stock workshop rates, priced in rials.
func DefaultRateTable() *RateTable {
	return &RateTable{
		Currency: "ریال",
		Materials: map[string]Material{
			"PLA":   {CostPerKg: 15_000_000, Density: 1.24},
			"ABS":   {CostPerKg: 10_000_000, Density: 1.05},
			"PETG":  {CostPerKg: 10_500_000, Density: 1.27},
			"Nylon": {CostPerKg: 9_000_000, Density: 1.14},
		},
		Qualities: map[string]Quality{
			"draft":  {ShellFactor: 0.12, FlowRate: 12.0},
			"normal": {ShellFactor: 0.18, FlowRate: 8.0},
			"high":   {ShellFactor: 0.25, FlowRate: 4.0},
		},
		DefaultMaterial:    "PLA",
		DefaultQuality:     "normal",
		InfillEfficiency:   1.0,
		MachineRatePerHour: 500_000,
		SetupFee:           300_000,
		MinJobPrice:        1_500_000,
		SupportFactor:      0.10,
	}
}

// LoadRateTable reads a complete rate table from a YAML file and validates it.
func LoadRateTable(path string) (*RateTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate table: %w", err)
	}
	return ParseRateTable(data)
}

// ParseRateTable decodes a YAML rate table. Omitted defaults fall back to
// PLA / normal with an infill efficiency of 1.
func ParseRateTable(data []byte) (*RateTable, error) {
	table := &RateTable{
		DefaultMaterial:  "PLA",
		DefaultQuality:   "normal",
		InfillEfficiency: 1.0,
	}
	if err := yaml.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("failed to parse rate table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Validate checks that fallbacks exist and that no rate is negative.
func (r *RateTable) Validate() error {
	var errs []string

	if _, ok := r.Materials[r.DefaultMaterial]; !ok {
		errs = append(errs, fmt.Sprintf("default material %q is not in the materials table", r.DefaultMaterial))
	}
	if _, ok := r.Qualities[r.DefaultQuality]; !ok {
		errs = append(errs, fmt.Sprintf("default quality %q is not in the qualities table", r.DefaultQuality))
	}

	for _, name := range sortedKeys(r.Materials) {
		m := r.Materials[name]
		if m.Density <= 0 {
			errs = append(errs, fmt.Sprintf("material %s: density must be positive", name))
		}
		if m.CostPerKg < 0 {
			errs = append(errs, fmt.Sprintf("material %s: cost_per_kg must not be negative", name))
		}
	}
	for _, name := range sortedKeys(r.Qualities) {
		q := r.Qualities[name]
		if q.ShellFactor < 0 {
			errs = append(errs, fmt.Sprintf("quality %s: shell_factor must not be negative", name))
		}
		if q.FlowRate < 0 {
			errs = append(errs, fmt.Sprintf("quality %s: flow_rate_mm3_s must not be negative", name))
		}
	}

	if r.InfillEfficiency < 0 {
		errs = append(errs, "infill_efficiency must not be negative")
	}
	if r.MachineRatePerHour < 0 {
		errs = append(errs, "machine_rate_per_hour must not be negative")
	}
	if r.SetupFee < 0 {
		errs = append(errs, "setup_fee must not be negative")
	}
	if r.MinJobPrice < 0 {
		errs = append(errs, "min_job_price must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("rate table validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Material returns the rates for name, or the default material's rates when
// name is unknown.
func (r *RateTable) Material(name string) Material {
	if m, ok := r.Materials[name]; ok {
		return m
	}
	return r.Materials[r.DefaultMaterial]
}

// Quality returns the rates for name, or the default quality's rates when
// name is unknown.
func (r *RateTable) Quality(name string) Quality {
	if q, ok := r.Qualities[name]; ok {
		return q
	}
	return r.Qualities[r.DefaultQuality]
}

// MaterialNames lists the configured materials in sorted order.
func (r *RateTable) MaterialNames() []string {
	return sortedKeys(r.Materials)
}

// QualityNames lists the configured qualities in sorted order.
func (r *RateTable) QualityNames() []string {
	return sortedKeys(r.Qualities)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
