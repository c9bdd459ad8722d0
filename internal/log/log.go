package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	NONE
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "NONE"}

// LevelTrace sits below slog.LevelDebug for per-statement records.
const LevelTrace = slog.LevelDebug - 4

// levelOff is above every level the program logs at.
const levelOff = slog.LevelError + 100

func (l Level) String() string {
	if l >= TRACE && l <= NONE {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLevel reads a level name case-insensitively; unknown names disable
// logging.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "trace":
		return TRACE
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return NONE
	}
}

func (l Level) Slog() slog.Level {
	switch l {
	case TRACE:
		return LevelTrace
	case DEBUG:
		return slog.LevelDebug
	case INFO:
		return slog.LevelInfo
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	}
	return levelOff
}

// fileWriter appends to a log file that can be reopened in place after it
// has been rotated away.
type fileWriter struct {
	path string
	mu   sync.Mutex
	file *os.File
}

func openFileWriter(path string) (*fileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for '%s': %w", path, err)
	}
	w := &fileWriter{path: path}
	if err := w.reopen(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Write(p)
}

func (w *fileWriter) reopen() error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open log file '%s': %w", w.path, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		w.file.Close()
	}
	w.file = f
	return nil
}

func (w *fileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// rotateOnHangup reopens the log file on every SIGHUP until stop is closed.
//
//	mv rpy.log rpy.log.1 && kill -HUP <pid>
func (w *fileWriter) rotateOnHangup(stop <-chan struct{}) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP)
	go func() {
		defer signal.Stop(sigs)
		for {
			select {
			case <-sigs:
				if err := w.reopen(); err != nil {
					fmt.Fprintf(os.Stderr, "%v\n", err)
				}
			case <-stop:
				return
			}
		}
	}()
}

type closer func() error

func (c closer) Close() error { return c() }

// New builds a JSON logger at level writing to path, or to stderr when path
// is empty or cannot be opened. Closing the returned io.Closer releases the
// file and stops listening for SIGHUP.
func New(level Level, path string) (*slog.Logger, io.Closer) {
	options := &slog.HandlerOptions{
		AddSource: false,
		Level:     level.Slog(),
	}

	if path == "" {
		return slog.New(slog.NewJSONHandler(os.Stderr, options)), closer(func() error { return nil })
	}

	w, err := openFileWriter(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v; falling back to stderr\n", err)
		return slog.New(slog.NewJSONHandler(os.Stderr, options)), closer(func() error { return nil })
	}

	stop := make(chan struct{})
	w.rotateOnHangup(stop)
	return slog.New(slog.NewJSONHandler(w, options)), closer(func() error {
		close(stop)
		return w.Close()
	})
}

// Trace logs at LevelTrace on the default logger.
func Trace(msg string, args ...any) {
	slog.Default().Log(context.Background(), LevelTrace, msg, args...)
}

func TraceEnabled() bool {
	return slog.Default().Enabled(context.Background(), LevelTrace)
}
