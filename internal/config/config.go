package config

import (
	"os"
	"strings"

	"codeberg.org/arlen/sensorctl/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultDataDir       = "/var/lib/sensorctl"
	defaultDatabasePath  = "/var/lib/sensorctl/telemetry.db"
	defaultQueueCapacity = 256
)

// SensorDefaults carries the per-family settings applied at startup and on
// reset. Rates are in Hz, ranges in meters, stream intervals in seconds.
type SensorDefaults struct {
	RateHz         float64 `mapstructure:"rate_hz"`
	Resolution     string  `mapstructure:"resolution"`
	RangeMinM      float64 `mapstructure:"range_min_m"`
	RangeMaxM      float64 `mapstructure:"range_max_m"`
	StreamInterval float64 `mapstructure:"stream_interval_sec"`
	Channels       int     `mapstructure:"channels"`
	AutoStart      bool    `mapstructure:"auto_start"`
}

// Kafka configures the telemetry bus publisher. When disabled, samples are
// logged instead of published.
type Kafka struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Config struct {
	LogLevel      string         `mapstructure:"log_level"`
	Debug         bool           `mapstructure:"debug"`
	Verbose       bool           `mapstructure:"verbose"`
	DataDir       string         `mapstructure:"data_dir"`
	Database      string         `mapstructure:"database"`
	MetricsAddr   string         `mapstructure:"metrics_addr"`
	QueueCapacity int            `mapstructure:"queue_capacity"`
	Kafka         Kafka          `mapstructure:"kafka"`
	Lidar         SensorDefaults `mapstructure:"lidar"`
	Ultrasonic    SensorDefaults `mapstructure:"ultrasonic"`
}

// Load reads configuration from file, environment, and command line flags,
// in increasing order of precedence.
func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("sensorctl", pflag.ContinueOnError)
	configFlag := flags.String("config", "", "Path to configuration file")
	logLevelFlag := flags.String("log-level", "", "Log level (debug, info, warning, error)")
	debugFlag := flags.Bool("debug", false, "Enable debugging mode")
	verboseFlag := flags.Bool("verbose", false, "Enable verbose logging")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetConfigName("sensorctl")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SENSORCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Explicit config path wins over the search path. The environment
	// variable mirrors the flag for service units.
	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("SENSORCTL_CONFIG")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err).
				WithMessage("Failed to read config file")
		}
	}

	if *debugFlag {
		v.Set("debug", true)
	}
	if *verboseFlag {
		v.Set("verbose", true)
	}
	if *logLevelFlag != "" {
		v.Set("log_level", *logLevelFlag)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	level, err := parseLogLevel(config.LogLevel)
	if err != nil {
		return nil, err
	}
	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Verbose && level > zerolog.InfoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("data_dir", defaultDataDir)
	v.SetDefault("database", defaultDatabasePath)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("queue_capacity", defaultQueueCapacity)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "device.telemetry")

	v.SetDefault("lidar.rate_hz", 10.0)
	v.SetDefault("lidar.resolution", "medium")
	v.SetDefault("lidar.range_min_m", 0.5)
	v.SetDefault("lidar.range_max_m", 30.0)
	v.SetDefault("lidar.stream_interval_sec", 1.0)
	v.SetDefault("lidar.auto_start", false)

	v.SetDefault("ultrasonic.rate_hz", 10.0)
	v.SetDefault("ultrasonic.resolution", "medium")
	v.SetDefault("ultrasonic.range_min_m", 0.1)
	v.SetDefault("ultrasonic.range_max_m", 4.0)
	v.SetDefault("ultrasonic.stream_interval_sec", 2.0)
	v.SetDefault("ultrasonic.channels", 4)
	v.SetDefault("ultrasonic.auto_start", false)
}

func parseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warning", "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, errors.New().
			WithData(errors.ErrInvalidLogLevel, level)
	}
}
