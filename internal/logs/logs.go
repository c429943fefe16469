package logs

import (
	"context"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a human-readable console logger which writes to stderr.
func New(debug bool) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          "console",
		DisableCaller:     !debug,
		DisableStacktrace: true,
		EncoderConfig: zapcore.EncoderConfig{
			LevelKey:       "L",
			CallerKey:      "C",
			MessageKey:     "M",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

// WithLogger returns a context with a new logger attached and a function which flushes it.
func WithLogger(ctx context.Context, debug bool) (context.Context, func(), error) {
	logger, err := New(debug)
	if err != nil {
		return ctx, nil, err
	}

	return logging.WithLogger(ctx, logger), func() {
		_ = logger.Sync()
	}, nil
}
