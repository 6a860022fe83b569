// Package logging builds the zap logger shared by every ceres command.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mercury-protocol/ceres/internal/errors"
)

// Options selects the logger level and encoding.
type Options struct {
	Level   string // debug, info, warn or error
	Format  string // text or json
	Verbose bool   // forces debug
}

// New returns a logger writing to w. Text output uses the console encoder
// without timestamps; JSON output uses the production encoder.
func New(w io.Writer, opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, errors.WrapWithDetails(errors.EConfigInvalid, "invalid log level", err,
				map[string]string{"level": opts.Level})
		}
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var enc zapcore.Encoder
	switch opts.Format {
	case "", "text":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		enc = zapcore.NewConsoleEncoder(cfg)
	case "json":
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, errors.NewWithDetails(errors.EUsage, "log format must be text or json",
			map[string]string{"format": opts.Format})
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}
