package logger

import "log/slog"

type Backend string

const (
	BackendStd Backend = "std" // text in dev, JSON elsewhere
	BackendZap Backend = "zap" // slog-zap bridge
)

type Config struct {
	// identity attached to every record
	Service    string
	Version    string
	InstanceID string

	// output control
	Level   slog.Level
	Env     Env
	Backend Backend // default: zap for stage/prod, std for dev
	Debug   bool

	// zap sampling; zero values fall back to 100/10 per second
	SampleInitial    int
	SampleThereafter int
	SampleTick       int // seconds

	AddSource bool
}
