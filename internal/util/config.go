package util

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const DefaultMaxCallDepth = 2048

// ReportConfig selects the database test runs are recorded in. An empty DSN
// disables recording.
type ReportConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`
	Home      string `toml:"-"`

	DebugJsonAST bool         `toml:"debug_json_ast"`
	MaxCallDepth int          `toml:"max_call_depth"`
	LogLevel     string       `toml:"log_level"`
	LogFile      string       `toml:"log_file"`
	Report       ReportConfig `toml:"report"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		MaxCallDepth: DefaultMaxCallDepth,
		LogLevel:     "none",
		Report: ReportConfig{
			Driver: "sqlite3",
		},
	}
}

// LoadConfiguration decodes the TOML file at path over cfg. Keys the file sets
// that Configuration does not know are an error.
func LoadConfiguration(path string, cfg *Configuration) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to read config '%s': %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config '%s': unknown keys %s", path, strings.Join(keys, ", "))
	}
	if cfg.MaxCallDepth <= 0 {
		return fmt.Errorf("config '%s': max_call_depth must be positive, got %d", path, cfg.MaxCallDepth)
	}
	return nil
}
