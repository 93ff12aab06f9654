package telemetry

// LoggingConfig controls logger construction.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" or "console". Console is the CLI default.
	Format string `yaml:"format"`

	// Output is "stdout", "stderr", or a file path.
	Output string `yaml:"output"`
}

// MetricsConfig controls metrics construction.
type MetricsConfig struct {
	// Enabled turns collection on. When false every recording call is a
	// no-op.
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name. Defaults to "vintner".
	Namespace string `yaml:"namespace"`
}

// DefaultLoggingConfig returns the CLI defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}
