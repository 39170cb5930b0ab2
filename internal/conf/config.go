// conf/config.go
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings is the root configuration tree for the photoacoustic core. It is
// unmarshalled directly from YAML by viper, the same way the teacher's
// Settings struct is.
type Settings struct {
	Debug bool // true to enable debug-level logging across the board

	Main struct {
		Name string // identifies this node in logs and telemetry
		Log  LogConfig
	}

	Sentry struct {
		Enabled    bool
		DSN        string
		SampleRate float64
	}

	// Acquisition configures the AudioSource and AcquisitionDaemon (C1-C3).
	Acquisition struct {
		Source          string // "mic", "file" or "mock"
		SampleRate      int
		Channels        int
		FrameSize       int // samples per channel per emitted AudioFrame
		ChunkDurationMs int
		OverlapMs       int

		Mic struct {
			DeviceName string
			Gain       float64
		}

		File struct {
			Path  string // path to a WAV file to replay
			Loop  bool
		}
	}

	// Processing configures the ProcessingGraph and ProcessingConsumer (C4-C9).
	Processing struct {
		GraphConfigPath      string // path to a YAML file of per-node parameter overrides
		HotReloadEnabled     bool
		StatsRefreshFrames   int // validated as positive; not read at runtime (the consumer logs progress every 100 frames)
		MaxConsumerLagFrames int
	}

	// Action configures the ActionDriver dispatch layer (C10).
	Action struct {
		DebounceWindow time.Duration

		MQTT struct {
			Enabled  bool
			Broker   string
			Topic    string
			Username string
			Password string
		}
	}

	// Metrics configures the Prometheus collector registration. No HTTP
	// server is started by this module; an external front-end is expected
	// to expose the registry this config names.
	Metrics struct {
		Enabled   bool
		Namespace string
	}
}

// LogConfig defines the configuration for a rotating log file.
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // path to the log file
	Rotation    RotationType // type of log rotation
	MaxSize     int64        // max size in bytes for RotationSize
	RotationDay time.Weekday // day of the week for RotationWeekly
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a fresh
// Settings instance, validates it, and stores it as the process-wide
// singleton returned by Setting().
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the first
// default config path and loads it.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("error reading embedded config.yaml: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, lazily loading it from the
// default search path on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
