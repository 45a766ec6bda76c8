package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Postgres struct {
	DSN             string `yaml:"dsn"`
	MaxConns        int32  `yaml:"maxConns"`
	MinConns        int32  `yaml:"minConns"`
	MaxConnLifetime string `yaml:"maxConnLifetime"`
	ApplicationName string `yaml:"applicationName"`
}

type Redis struct {
	Addr     string `yaml:"addr"` // empty disables the TMDB page cache
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

type TMDB struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
}

type Room struct {
	MoviesPerRoom int `yaml:"moviesPerRoom"`
}

type Hub struct {
	SendBuffer    int    `yaml:"sendBuffer"`
	IdleAfter     string `yaml:"idleAfter"`
	RetryAttempts int    `yaml:"retryAttempts"`
	RetryDelay    string `yaml:"retryDelay"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type Logging struct {
	Env       string `yaml:"env"`     // dev|stage|prod
	Service   string `yaml:"service"` // movie-night-decider
	Version   string `yaml:"version"` // v0.1.0
	Backend   string `yaml:"backend"` // std|zap
	AddSource bool   `yaml:"addSource"`
	Debug     bool   `yaml:"debug"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	TMDB     TMDB     `yaml:"tmdb"`
	Room     Room     `yaml:"room"`
	Hub      Hub      `yaml:"hub"`
	CORS     CORS     `yaml:"cors"`
	Logging  Logging  `yaml:"logging"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets deployment secrets override the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		c.TMDB.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.TMDB.APIKey == "" {
		return errors.New("tmdb.apiKey is required")
	}
	// defaults for anything left unset
	if c.Logging.Service == "" {
		c.Logging.Service = "movie-night-decider"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Room.MoviesPerRoom <= 0 {
		c.Room.MoviesPerRoom = 20
	}
	return nil
}

func (p Postgres) ConnLifetime() time.Duration {
	return parseDurationOr(30*time.Minute, p.MaxConnLifetime)
}

func (r Redis) CacheTTL() time.Duration {
	return parseDurationOr(time.Hour, r.TTL)
}

func (h Hub) IdleTimeout() time.Duration {
	return parseDurationOr(time.Minute, h.IdleAfter)
}

func (h Hub) RetryBackoff() time.Duration {
	return parseDurationOr(100*time.Millisecond, h.RetryDelay)
}

func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
