package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical annotation defaults file.
const DefaultConfigPath = "config/annotate.defaults.json"

// Repetition modes accepted in the "repetition" key.
const (
	RepetitionCount     = "count"
	RepetitionUntil     = "until"
	RepetitionSignalEnd = "signal_end"
)

// Spacing modes accepted in the "spacing" key.
const (
	SpacingOverlap = "overlap"
	SpacingGap     = "gap"
)

// AnnotateConfig holds the annotation and sample-planning parameters.
// Every field is optional; the Get* methods supply defaults for fields
// the JSON omits.
type AnnotateConfig struct {
	// Recording
	SampleRateHz *float64 `json:"sample_rate_hz,omitempty"`

	// Interactive creation
	DefaultSpanSeconds *float64 `json:"default_span_seconds,omitempty"`
	NoiseLabel         *string  `json:"noise_label,omitempty"`
	PartitionLabel     *string  `json:"partition_label,omitempty"`

	// Sample planning
	SampleLabel                 *string  `json:"sample_label,omitempty"`
	SampleDurationSeconds       *float64 `json:"sample_duration_seconds,omitempty"`
	MinimumValidDurationSeconds *float64 `json:"minimum_valid_duration_seconds,omitempty"`
	StartSeconds                *float64 `json:"start_seconds,omitempty"`
	Repetition                  *string  `json:"repetition,omitempty"` // count, until, signal_end
	RepetitionCount             *int     `json:"repetition_count,omitempty"`
	RepetitionUntilSeconds      *float64 `json:"repetition_until_seconds,omitempty"`
	Spacing                     *string  `json:"spacing,omitempty"` // overlap, gap
	OverlapPercent              *float64 `json:"overlap_percent,omitempty"`
	GapSeconds                  *float64 `json:"gap_seconds,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyAnnotateConfig returns a config with every field unset.
func EmptyAnnotateConfig() *AnnotateConfig {
	return &AnnotateConfig{}
}

// DefaultAnnotateConfig returns a config with every field set to the value
// the matching getter falls back to.
func DefaultAnnotateConfig() *AnnotateConfig {
	c := EmptyAnnotateConfig()
	return &AnnotateConfig{
		SampleRateHz:                ptrFloat64(c.GetSampleRateHz()),
		DefaultSpanSeconds:          ptrFloat64(c.GetDefaultSpanSeconds()),
		NoiseLabel:                  ptrString(c.GetNoiseLabel()),
		PartitionLabel:              ptrString(c.GetPartitionLabel()),
		SampleLabel:                 ptrString(c.GetSampleLabel()),
		SampleDurationSeconds:       ptrFloat64(c.GetSampleDurationSeconds()),
		MinimumValidDurationSeconds: ptrFloat64(c.GetMinimumValidDurationSeconds()),
		StartSeconds:                ptrFloat64(c.GetStartSeconds()),
		Repetition:                  ptrString(c.GetRepetition()),
		RepetitionCount:             ptrInt(c.GetRepetitionCount()),
		RepetitionUntilSeconds:      ptrFloat64(c.GetRepetitionUntilSeconds()),
		Spacing:                     ptrString(c.GetSpacing()),
		OverlapPercent:              ptrFloat64(c.GetOverlapPercent()),
		GapSeconds:                  ptrFloat64(c.GetGapSeconds()),
	}
}

// LoadAnnotateConfig loads an AnnotateConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file fall back to the getter defaults.
func LoadAnnotateConfig(path string) (*AnnotateConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnnotateConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or a parent. Panics if the file cannot be found, intended for test setup.
func MustLoadDefaultConfig() *AnnotateConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/annotate/
	}
	for _, path := range candidates {
		if cfg, err := LoadAnnotateConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set; unset fields are not checked.
func (c *AnnotateConfig) Validate() error {
	for _, f := range []struct {
		key string
		v   *float64
	}{
		{"sample_rate_hz", c.SampleRateHz},
		{"default_span_seconds", c.DefaultSpanSeconds},
		{"sample_duration_seconds", c.SampleDurationSeconds},
		{"minimum_valid_duration_seconds", c.MinimumValidDurationSeconds},
		{"start_seconds", c.StartSeconds},
		{"repetition_until_seconds", c.RepetitionUntilSeconds},
		{"overlap_percent", c.OverlapPercent},
		{"gap_seconds", c.GapSeconds},
	} {
		if f.v != nil && (math.IsNaN(*f.v) || math.IsInf(*f.v, 0)) {
			return fmt.Errorf("%s must be finite, got %f", f.key, *f.v)
		}
	}
	if c.SampleRateHz != nil && *c.SampleRateHz <= 0 {
		return fmt.Errorf("sample_rate_hz must be positive, got %f", *c.SampleRateHz)
	}
	if c.DefaultSpanSeconds != nil && *c.DefaultSpanSeconds <= 0 {
		return fmt.Errorf("default_span_seconds must be positive, got %f", *c.DefaultSpanSeconds)
	}
	if c.SampleDurationSeconds != nil && *c.SampleDurationSeconds <= 0 {
		return fmt.Errorf("sample_duration_seconds must be positive, got %f", *c.SampleDurationSeconds)
	}
	if c.MinimumValidDurationSeconds != nil {
		if *c.MinimumValidDurationSeconds < 0 {
			return fmt.Errorf("minimum_valid_duration_seconds must be non-negative, got %f", *c.MinimumValidDurationSeconds)
		}
		if *c.MinimumValidDurationSeconds > c.GetSampleDurationSeconds() {
			return fmt.Errorf("minimum_valid_duration_seconds (%f) exceeds sample_duration_seconds (%f)",
				*c.MinimumValidDurationSeconds, c.GetSampleDurationSeconds())
		}
	}
	if c.Repetition != nil {
		switch *c.Repetition {
		case RepetitionCount, RepetitionUntil, RepetitionSignalEnd:
		default:
			return fmt.Errorf("repetition must be one of count, until, signal_end, got %q", *c.Repetition)
		}
	}
	if c.RepetitionCount != nil && *c.RepetitionCount < 0 {
		return fmt.Errorf("repetition_count must be non-negative, got %d", *c.RepetitionCount)
	}
	if c.Spacing != nil {
		switch *c.Spacing {
		case SpacingOverlap, SpacingGap:
		default:
			return fmt.Errorf("spacing must be one of overlap, gap, got %q", *c.Spacing)
		}
	}
	if c.OverlapPercent != nil && (*c.OverlapPercent < 0 || *c.OverlapPercent >= 100) {
		return fmt.Errorf("overlap_percent must be in [0, 100), got %f", *c.OverlapPercent)
	}
	if c.GapSeconds != nil && *c.GapSeconds < 0 {
		return fmt.Errorf("gap_seconds must be non-negative, got %f", *c.GapSeconds)
	}
	if c.OverlapPercent != nil && c.GapSeconds != nil && *c.OverlapPercent > 0 && *c.GapSeconds > 0 {
		return fmt.Errorf("overlap_percent and gap_seconds are mutually exclusive")
	}
	return nil
}

// GetSampleRateHz returns the sample_rate_hz value or the default.
func (c *AnnotateConfig) GetSampleRateHz() float64 {
	if c.SampleRateHz == nil {
		return 250
	}
	return *c.SampleRateHz
}

// GetDefaultSpanSeconds returns the default_span_seconds value or the default.
func (c *AnnotateConfig) GetDefaultSpanSeconds() float64 {
	if c.DefaultSpanSeconds == nil {
		return 2.0
	}
	return *c.DefaultSpanSeconds
}

// GetNoiseLabel returns the noise_label value or the default.
func (c *AnnotateConfig) GetNoiseLabel() string {
	if c.NoiseLabel == nil {
		return "noise"
	}
	return *c.NoiseLabel
}

// GetPartitionLabel returns the partition_label value or the default.
func (c *AnnotateConfig) GetPartitionLabel() string {
	if c.PartitionLabel == nil {
		return "partition"
	}
	return *c.PartitionLabel
}

// GetSampleLabel returns the sample_label value or the default.
func (c *AnnotateConfig) GetSampleLabel() string {
	if c.SampleLabel == nil {
		return "sample"
	}
	return *c.SampleLabel
}

// GetSampleDurationSeconds returns the sample_duration_seconds value or the default.
func (c *AnnotateConfig) GetSampleDurationSeconds() float64 {
	if c.SampleDurationSeconds == nil {
		return 300 // 5 minute short-term HRV window
	}
	return *c.SampleDurationSeconds
}

// GetMinimumValidDurationSeconds returns the minimum_valid_duration_seconds value or the default.
func (c *AnnotateConfig) GetMinimumValidDurationSeconds() float64 {
	if c.MinimumValidDurationSeconds == nil {
		return 240
	}
	return *c.MinimumValidDurationSeconds
}

// GetStartSeconds returns the start_seconds value or the default.
func (c *AnnotateConfig) GetStartSeconds() float64 {
	if c.StartSeconds == nil {
		return 0
	}
	return *c.StartSeconds
}

// GetRepetition returns the repetition value or the default.
func (c *AnnotateConfig) GetRepetition() string {
	if c.Repetition == nil {
		return RepetitionSignalEnd
	}
	return *c.Repetition
}

// GetRepetitionCount returns the repetition_count value or the default.
func (c *AnnotateConfig) GetRepetitionCount() int {
	if c.RepetitionCount == nil {
		return 1
	}
	return *c.RepetitionCount
}

// GetRepetitionUntilSeconds returns the repetition_until_seconds value or the default.
func (c *AnnotateConfig) GetRepetitionUntilSeconds() float64 {
	if c.RepetitionUntilSeconds == nil {
		return 0
	}
	return *c.RepetitionUntilSeconds
}

// GetSpacing returns the spacing value or the default.
func (c *AnnotateConfig) GetSpacing() string {
	if c.Spacing == nil {
		return SpacingGap
	}
	return *c.Spacing
}

// GetOverlapPercent returns the overlap_percent value or the default.
func (c *AnnotateConfig) GetOverlapPercent() float64 {
	if c.OverlapPercent == nil {
		return 0
	}
	return *c.OverlapPercent
}

// GetGapSeconds returns the gap_seconds value or the default.
func (c *AnnotateConfig) GetGapSeconds() float64 {
	if c.GapSeconds == nil {
		return 0
	}
	return *c.GapSeconds
}
