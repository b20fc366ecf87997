package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. APPRUNNER_SERVER_PORT.
const EnvPrefix = "APPRUNNER_"

// PathEnv names the optional YAML config file.
const PathEnv = EnvPrefix + "CONFIG_PATH"

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	DB       DBConfig       `yaml:"db" envPrefix:"DB_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Projects ProjectsConfig `yaml:"projects" envPrefix:"PROJECTS_"`
	Build    BuildConfig    `yaml:"build" envPrefix:"BUILD_"`
	Legacy   LegacyConfig   `yaml:"legacy" envPrefix:"LEGACY_"`
	Realtime RealtimeConfig `yaml:"realtime" envPrefix:"REALTIME_"`
	Sessions SessionsConfig `yaml:"sessions" envPrefix:"SESSIONS_"`
	MCP      MCPConfig      `yaml:"mcp" envPrefix:"MCP_"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type DBConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	// Path, when set, sends logs to a size-capped file instead of the console.
	Path string `yaml:"path" env:"PATH"`
}

type ProjectsConfig struct {
	Root     string        `yaml:"root" env:"ROOT"`
	DistDir  string        `yaml:"dist_dir" env:"DIST_DIR"`
	Watch    bool          `yaml:"watch" env:"WATCH"`
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

type BuildConfig struct {
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxOutput  int           `yaml:"max_output" env:"MAX_OUTPUT"`
	NPMCommand string        `yaml:"npm_command" env:"NPM_COMMAND"`
}

type LegacyConfig struct {
	// StatsPath is the flat snapshot file imported once at startup.
	StatsPath string `yaml:"stats_path" env:"STATS_PATH"`
}

type RealtimeConfig struct {
	PingInterval   time.Duration `yaml:"ping_interval" env:"PING_INTERVAL"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	SendBuffer     int           `yaml:"send_buffer" env:"SEND_BUFFER"`
	OriginPatterns []string      `yaml:"origin_patterns" env:"ORIGIN_PATTERNS" envSeparator:","`
}

type SessionsConfig struct {
	SweepOnStart bool `yaml:"sweep_on_start" env:"SWEEP_ON_START"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		DB: DBConfig{
			Path: "data/apprunner.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Projects: ProjectsConfig{
			Root:     "apps",
			DistDir:  "dist",
			Watch:    true,
			Debounce: 250 * time.Millisecond,
		},
		Build: BuildConfig{
			Timeout:    10 * time.Minute,
			MaxOutput:  1 << 20,
			NPMCommand: "npm",
		},
		Legacy: LegacyConfig{
			StatsPath: "data/stats.json",
		},
		Realtime: RealtimeConfig{
			PingInterval: 30 * time.Second,
			WriteTimeout: 10 * time.Second,
			SendBuffer:   16,
		},
		Sessions: SessionsConfig{
			SweepOnStart: true,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
	}
}

// Load builds the configuration from defaults, an optional .env file, an
// optional YAML file and APPRUNNER_* environment variables, in that order.
// path overrides APPRUNNER_CONFIG_PATH when non-empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	case c.DB.Path == "":
		return errors.New("db.path is required")
	case c.Projects.Root == "":
		return errors.New("projects.root is required")
	case c.Build.Timeout <= 0:
		return fmt.Errorf("invalid build.timeout %s", c.Build.Timeout)
	case c.Build.MaxOutput <= 0:
		return fmt.Errorf("invalid build.max_output %d", c.Build.MaxOutput)
	case c.Build.NPMCommand == "":
		return errors.New("build.npm_command is required")
	case c.Realtime.SendBuffer <= 0:
		return fmt.Errorf("invalid realtime.send_buffer %d", c.Realtime.SendBuffer)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
