package config

// Default configuration values.
const (
	DefaultLogLevel = "info"
	DefaultOutput   = "table"
)

// Config holds the macrols configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile is the path the server log is appended to. Empty means
	// stderr; stdout is never used because it carries the LSP protocol.
	LogFile string `koanf:"log_file"`

	// Output is the rendering mode of inspection commands (table|json).
	Output string `koanf:"output"`
}
