// Package config holds the deployment configuration for the backup target.
// Everything is optional; the zero config with defaults applied describes a
// working single-root deployment.
package config

// Config is the top-level YAML document.
type Config struct {
	Root      string          `yaml:"root"`
	Rsync     RsyncConfig     `yaml:"rsync"`
	Cadence   CadenceConfig   `yaml:"cadence"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RsyncConfig selects the transfer binary and the fixed flags prepended to
// every invocation. Client-supplied options are appended after these.
type RsyncConfig struct {
	Binary string   `yaml:"binary"`
	Flags  []string `yaml:"flags"`
}

// CadenceConfig carries the cron expressions for the weekly, monthly and
// yearly snapshot boundaries. Empty fields use the built-in defaults.
type CadenceConfig struct {
	Weekly  string `yaml:"weekly"`
	Monthly string `yaml:"monthly"`
	Yearly  string `yaml:"yearly"`
}

// RetentionConfig carries the tier widths of the pruning policy.
type RetentionConfig struct {
	DailyDays    int `yaml:"dailyDays"`
	WeeklyMonths int `yaml:"weeklyMonths"`
	MonthlyYears int `yaml:"monthlyYears"`
}

// LoggingConfig selects log level, format and an optional append-only file
// sink. When the file cannot be opened logging falls back to stderr.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Rsync: RsyncConfig{
			Flags: []string{"-a", "--numeric-ids", "--delete"},
		},
		Retention: RetentionConfig{
			DailyDays:    7,
			WeeklyMonths: 1,
			MonthlyYears: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
