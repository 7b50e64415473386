package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Graph   GraphConfig
	Logging LoggingConfig
	ACO     ACOConfig
	Sim     SimConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// GraphConfig describes where waypoint data is loaded from on startup.
// URI takes precedence over File.
type GraphConfig struct {
	File     string
	URI      string
	Database string
	Username string
	Password string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// ACOConfig holds the colony parameters applied to every tour request.
type ACOConfig struct {
	Alpha             float64
	Beta              float64
	EvaporationFactor float64
	Q                 float64
	DefaultPheromone  float64
	Iterations        int
	Ants              int
	MaxPathLength     int
	Seed              int64
}

// SimConfig holds movement parameters for the tick driver.
type SimConfig struct {
	MaxSpeed          float64
	DeliveryWaitTicks int
	TickInterval      time.Duration
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"

	defaultAlpha             = 1.0
	defaultBeta              = 0.0001
	defaultEvaporationFactor = 0.5
	defaultQ                 = 0.0006
	defaultPheromone         = 1.0
	defaultIterations        = 150
	defaultAnts              = 50
	defaultMaxPathLength     = 15

	defaultMaxSpeed          = 5.0
	defaultDeliveryWaitTicks = 180
	defaultTickInterval      = time.Second / 60
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Graph: GraphConfig{
			File:     os.Getenv("GRAPH_FILE"),
			URI:      os.Getenv("GRAPH_URI"),
			Database: valueOrDefault("GRAPH_DATABASE", ""),
			Username: os.Getenv("GRAPH_USERNAME"),
			Password: os.Getenv("GRAPH_PASSWORD"),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		ACO: ACOConfig{
			Iterations:    parseIntWithDefault("ACO_ITERATIONS", defaultIterations),
			Ants:          parseIntWithDefault("ACO_ANTS", defaultAnts),
			MaxPathLength: parseIntWithDefault("ACO_MAX_PATH_LENGTH", defaultMaxPathLength),
		},
		Sim: SimConfig{
			DeliveryWaitTicks: parseIntWithDefault("SIM_DELIVERY_WAIT_TICKS", defaultDeliveryWaitTicks),
			TickInterval:      defaultTickInterval,
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	floats := []struct {
		key      string
		fallback float64
		dst      *float64
	}{
		{"ACO_ALPHA", defaultAlpha, &cfg.ACO.Alpha},
		{"ACO_BETA", defaultBeta, &cfg.ACO.Beta},
		{"ACO_EVAPORATION", defaultEvaporationFactor, &cfg.ACO.EvaporationFactor},
		{"ACO_Q", defaultQ, &cfg.ACO.Q},
		{"ACO_DEFAULT_PHEROMONE", defaultPheromone, &cfg.ACO.DefaultPheromone},
		{"SIM_MAX_SPEED", defaultMaxSpeed, &cfg.Sim.MaxSpeed},
	}
	for _, f := range floats {
		v, err := parseFloat(f.key, f.fallback)
		if err != nil {
			return Config{}, err
		}
		*f.dst = v
	}

	if v := os.Getenv("ACO_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ACO_SEED: %w", err)
		}
		cfg.ACO.Seed = seed
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ReadTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SIM_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sim.TickInterval = d
		} else {
			return Config{}, fmt.Errorf("invalid SIM_TICK_INTERVAL: %w", err)
		}
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloat(key string, fallback float64) (float64, error) {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		return val, nil
	}
	return fallback, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
