// Package log routes slog through a rotating file, so the TUI never has
// log lines fighting it for the terminal.
package log

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	charmlog "charm.land/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu       sync.Mutex
	panicDir string
)

// Setup points the default slog logger at path with rotation. Debug
// lowers the level.
func Setup(path string, debugLevel bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	level := charmlog.InfoLevel
	if debugLevel {
		level = charmlog.DebugLevel
	}
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	handler := charmlog.NewWithOptions(writer, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	slog.SetDefault(slog.New(handler))

	mu.Lock()
	panicDir = filepath.Dir(path)
	mu.Unlock()
	return nil
}

// RecoverPanic turns a panic into a crash report file next to the log,
// runs cleanup, and lets the process die with its terminal restored
// instead of mid-frame.
func RecoverPanic(name string, cleanup func()) {
	r := recover()
	if r == nil {
		return
	}

	mu.Lock()
	dir := panicDir
	mu.Unlock()
	if dir == "" {
		dir = "."
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := filepath.Join(dir, fmt.Sprintf("rowpane-panic-%s-%s.log", name, timestamp))
	if file, err := os.Create(filename); err == nil {
		fmt.Fprintf(file, "Panic in %s: %v\n\n", name, r)
		fmt.Fprintf(file, "Time: %s\n\n", time.Now().Format(time.RFC3339))
		fmt.Fprintf(file, "Stack Trace:\n%s\n", debug.Stack())
		_ = file.Close()
		slog.Error("panic recovered", "name", name, "report", filename)
	} else {
		slog.Error("panic recovered, report could not be written", "name", name, "error", err)
	}

	if cleanup != nil {
		cleanup()
	}
}
