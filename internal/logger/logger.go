package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the console logger used by both clients. Terminal output goes
// to stderr so it does not interleave with the chat transcript on stdout;
// when logFile is set, records go there instead.
func New(level string, logFile string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.CallerKey = ""

	outputPaths := []string{"stderr"}
	errorOutputPaths := []string{"stderr"}

	if logFile != "" {
		outputPaths = []string{logFile}
		errorOutputPaths = append(errorOutputPaths, logFile)
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Development:       false,
		Encoding:          "console",
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputPaths,
		ErrorOutputPaths:  errorOutputPaths,
		DisableStacktrace: true,
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("unable to create logger %w", err)
	}

	return logger, nil
}
