// Package config holds the tool's own configuration: domain vocabularies,
// the uniquifier pool, emitter layout budgets, and logging/validator
// settings. Mirrors the teacher's config.Load/Save/Validate/DefaultConfig
// shape, generalized to the case-compiler domain.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level tool configuration, loaded from an optional YAML
// file and overridable by CLI flags.
type Config struct {
	Framework FrameworkConfig `yaml:"framework"`
	CaseGen   CaseGenConfig   `yaml:"case_gen"`
	Validator ValidatorConfig `yaml:"validator"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// FrameworkConfig contains general framework settings.
type FrameworkConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// CaseGenConfig contains case-compiler tunables.
type CaseGenConfig struct {
	// ExtensiveVocabulary lists substrings that classify a data name as extensive.
	ExtensiveVocabulary []string `yaml:"extensive_vocabulary"`
	// IntensiveVocabulary lists substrings that classify a data name as intensive.
	IntensiveVocabulary []string `yaml:"intensive_vocabulary"`
	// UniquifierPool is the ordered adjective list used to disambiguate
	// bidirectional data-name collisions. Shrinks during topology reading.
	UniquifierPool []string `yaml:"uniquifier_pool"`
	// LineWrapWidth is the pretty-printer's maximum line width before
	// attribute wrap (spec: 120 columns).
	LineWrapWidth int `yaml:"line_wrap_width"`
	// AttributeWrapThreshold is the budget past which mapping elements with
	// more than two attributes wrap one-per-line (spec: 100 columns).
	AttributeWrapThreshold int `yaml:"attribute_wrap_threshold"`
	// M2NType is the default M2N transport (spec: sockets).
	M2NType string `yaml:"m2n_type"`
	// AccelerationType is the default acceleration scheme (spec: IQN-ILS).
	AccelerationType string `yaml:"acceleration_type"`
	// ConvergenceLimit is the default relative-convergence-measure limit.
	ConvergenceLimit float64 `yaml:"convergence_limit"`
	// MaxTime is the simulation end time emitted on every coupling scheme.
	// The topology format carries no timing information, so this is a
	// tool-level default rather than something inferred per case.
	MaxTime float64 `yaml:"max_time"`
	// TimeWindowSize is the fixed coupling time-window size.
	TimeWindowSize float64 `yaml:"time_window_size"`
	// MaxIterations bounds implicit/multi coupling-scheme sub-iterations.
	MaxIterations int `yaml:"max_iterations"`
}

// ValidatorConfig controls invocation of the external precice-config-check tool.
type ValidatorConfig struct {
	BinaryPath string `yaml:"binary_path"`
	Enabled    bool   `yaml:"enabled"`
}

// ReportingConfig controls log-file retention.
type ReportingConfig struct {
	LogDir    string `yaml:"log_dir"`
	KeepLastN int    `yaml:"keep_last_n"`
}

// DefaultExtensiveVocabulary is the fixed extensive-data vocabulary from spec.md §4.2.
var DefaultExtensiveVocabulary = []string{"force", "displacement"}

// DefaultIntensiveVocabulary is the fixed intensive-data vocabulary from spec.md §4.2.
var DefaultIntensiveVocabulary = []string{"temperature", "pressure", "velocity", "heat-flux"}

// DefaultUniquifierPool is the fixed, ordered adjective list seeding
// collision-resolution renames (spec.md §9, "Global uniquifier pool").
var DefaultUniquifierPool = []string{
	"Magnificent", "Resilient", "Steadfast", "Lucid", "Tranquil",
	"Vivid", "Earnest", "Nimble", "Intrepid", "Placid",
	"Radiant", "Stalwart", "Serene", "Vigilant", "Buoyant",
}

// DefaultConfig returns the tool's built-in defaults.
func DefaultConfig() *Config {
	pool := make([]string, len(DefaultUniquifierPool))
	copy(pool, DefaultUniquifierPool)

	return &Config{
		Framework: FrameworkConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
		CaseGen: CaseGenConfig{
			ExtensiveVocabulary:    append([]string{}, DefaultExtensiveVocabulary...),
			IntensiveVocabulary:    append([]string{}, DefaultIntensiveVocabulary...),
			UniquifierPool:         pool,
			LineWrapWidth:          120,
			AttributeWrapThreshold: 100,
			M2NType:                "sockets",
			AccelerationType:       "IQN-ILS",
			ConvergenceLimit:       1e-3,
			MaxTime:                1.0,
			TimeWindowSize:         0.01,
			MaxIterations:          100,
		},
		Validator: ValidatorConfig{
			BinaryPath: "precice-config-check",
			Enabled:    true,
		},
		Reporting: ReportingConfig{
			LogDir:    ".logs",
			KeepLastN: 10,
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the path is empty or the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if len(c.CaseGen.UniquifierPool) == 0 {
		return fmt.Errorf("case_gen.uniquifier_pool must not be empty")
	}
	if c.CaseGen.LineWrapWidth <= 0 {
		return fmt.Errorf("case_gen.line_wrap_width must be > 0")
	}
	if c.CaseGen.AttributeWrapThreshold <= 0 {
		return fmt.Errorf("case_gen.attribute_wrap_threshold must be > 0")
	}
	if c.Reporting.KeepLastN < 0 {
		return fmt.Errorf("reporting.keep_last_n cannot be negative")
	}
	return nil
}
