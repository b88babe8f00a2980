package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// setupLogger creates a logger that writes JSON lines to a log file and
// console lines to stderr. When stderr is redirected (daemon mode) logs go
// only to the file, so they are not written twice. The returned func closes
// the file.
func setupLogger(logFilePath string, debug bool) (*zap.Logger, func()) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	stderrIsTerminal := false
	if info, err := os.Stderr.Stat(); err == nil {
		stderrIsTerminal = (info.Mode() & os.ModeCharDevice) != 0
	}

	var (
		cores     []zapcore.Core
		closeFile = func() {}
	)
	lower := strings.ToLower(logFilePath)
	if lower != "none" && lower != "off" && logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "okrboard: warning: cannot create log dir %s: %v\n", filepath.Dir(logFilePath), err)
		} else if f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "okrboard: warning: cannot open log file %s: %v\n", logFilePath, err)
		} else {
			enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
			cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(f), level))
			closeFile = func() { _ = f.Close() }
		}
	}

	// Always keep at least one output.
	if stderrIsTerminal || len(cores) == 0 {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level))
	}

	return zap.New(zapcore.NewTee(cores...)).Named("okrboard"), closeFile
}
