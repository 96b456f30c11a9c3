package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rpggio/voicenotes/internal/config"
)

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

// newLogger writes to stderr in stdio mode, since stdout carries JSON-RPC, and
// to stdout otherwise. VOICENOTES_LOG_PATH redirects logs to a size-capped file.
func newLogger(cfg config.Config) (*slog.Logger, func()) {
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == config.ModeStdio {
		logWriter = os.Stderr
	}
	closeLog := func() {}
	if logPath := os.Getenv("VOICENOTES_LOG_PATH"); logPath != "" {
		fileWriter, err := newLogFileWriter(logPath, maxLogSizeBytes, keepLogSizeBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			logWriter = fileWriter
			closeLog = func() { _ = fileWriter.Close() }
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return logger, closeLog
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// logFileWriter appends to a file and, once it grows past maxSize, keeps only
// the newest keepSize bytes.
type logFileWriter struct {
	file     *os.File
	maxSize  int64
	keepSize int64
	mu       sync.Mutex
}

func newLogFileWriter(path string, maxSize, keepSize int64) (*logFileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	writer := &logFileWriter{file: file, maxSize: maxSize, keepSize: keepSize}
	if err := writer.truncateIfNeeded(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return writer, nil
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= w.maxSize {
		return nil
	}

	buf := make([]byte, w.keepSize)
	n, err := w.file.ReadAt(buf, size-w.keepSize)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	// O_APPEND makes every write land at the end, so truncating to zero and
	// writing the tail rewrites the file from the start.
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	_, err = w.file.Write(buf)
	return err
}
