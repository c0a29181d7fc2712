package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	defaultIssuer     = "cribbage-rooms"
	defaultTTLMinutes = 720
)

type Config struct {
	Addr         string `yaml:"addr" envconfig:"BACKEND_ADDR"`
	Port         string `yaml:"-" envconfig:"PORT"`
	DatabasePath string `yaml:"databasePath" envconfig:"DATABASE_PATH"`

	JWTSecret     string `yaml:"jwtSecret" envconfig:"JWT_SECRET"`
	JWTIssuer     string `yaml:"jwtIssuer" envconfig:"JWT_ISSUER"`
	JWTTTLMinutes int64  `yaml:"jwtTtlMinutes" envconfig:"JWT_TTL_MINUTES"`

	AppEnv                string   `yaml:"appEnv" envconfig:"APP_ENV"`
	WSAllowedOrigins      []string `yaml:"wsAllowedOrigins" envconfig:"WS_ALLOWED_ORIGINS"`
	DevWebSocketsAllowAll bool     `yaml:"devWebsocketsAllowAll" envconfig:"DEV_WEBSOCKETS_ALLOW_ALL"`

	LogLevel       string `yaml:"logLevel" envconfig:"LOG_LEVEL"`
	LogFormat      string `yaml:"logFormat" envconfig:"LOG_FORMAT"`
	TracesExporter string `yaml:"tracesExporter" envconfig:"OTEL_TRACES_EXPORTER"`
}

// JWTTTL is the lifetime of a seat token.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// LoadFromEnv reads the optional YAML file named by CRIBBAGE_CONFIG_FILE and
// then overlays the environment.
func LoadFromEnv() (Config, error) {
	var cfg Config
	if path := strings.TrimSpace(os.Getenv("CRIBBAGE_CONFIG_FILE")); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config file: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file: %w", err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("missing/invalid env: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.AppEnv = strings.TrimSpace(c.AppEnv)
	if c.AppEnv == "" {
		c.AppEnv = "development"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = defaultIssuer
	}
	if c.JWTTTLMinutes <= 0 {
		c.JWTTTLMinutes = defaultTTLMinutes
	}
	// BACKEND_ADDR is optional if PORT is set by the hosting environment.
	if c.Addr == "" {
		if port := strings.TrimSpace(c.Port); port != "" {
			if strings.Contains(port, ":") {
				c.Addr = port
			} else {
				c.Addr = ":" + port
			}
		}
	}
	var origins []string
	for _, o := range c.WSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.WSAllowedOrigins = origins
}

func (c Config) Validate() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.DatabasePath == "" {
		missing = append(missing, "DATABASE_PATH")
	}
	if c.Addr == "" {
		missing = append(missing, "BACKEND_ADDR (or PORT)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing/invalid env: %s", strings.Join(missing, ", "))
	}
	return nil
}
