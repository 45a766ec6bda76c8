// Package logger configures the process-wide slog logger. Dev runs get a
// readable text handler, everything else goes through zap with sampling.
package logger

import "log/slog"

var def *slog.Logger

// Init builds the handler for the configured environment and installs it
// as the slog default.
func Init(cfg Config) {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "app"
	}
	cfg.InstanceID = ensureInstanceID(cfg.InstanceID)
	if cfg.Backend == "" {
		cfg.Backend = defaultBackend(cfg.Env)
	}

	var h slog.Handler
	switch cfg.Backend {
	case BackendZap:
		h = newZapHandler(cfg)
	default:
		h = newStdHandler(cfg)
	}

	h = h.WithAttrs(commonAttr(cfg))

	base := slog.New(h)
	slog.SetDefault(base)
	def = base
}

func defaultBackend(env Env) Backend {
	if env == EnvDev {
		return BackendStd
	}
	return BackendZap
}

// L returns the configured logger, initializing defaults on first use.
func L() *slog.Logger {
	if def != nil {
		return def
	}

	Init(Config{})
	return def
}

func resolveLevel(cfg Config) slog.Level {
	if cfg.Debug && cfg.Level == 0 {
		return slog.LevelDebug
	}
	return cfg.Level
}
