// Package logger configures the go-logging backends shared by every package
// of the module.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	plainFormat = logging.MustStringFormatter(
		`%{time:2006-01-02 15:04:05.000} %{level:.4s} %{module} %{shortfile} > %{message}`,
	)
	colorFormat = logging.MustStringFormatter(
		`%{color}%{time:2006-01-02 15:04:05.000} %{level:.4s}%{color:reset} %{module} %{shortfile} > %{message}`,
	)

	mu   sync.Mutex
	file io.WriteCloser
)

// Config describes where log records go and at which level.
type Config struct {
	Level      string `toml:"level" yaml:"level"`
	File       string `toml:"file" yaml:"file"`
	MaxSize    int    `toml:"maxSize" yaml:"maxSize"` // megabytes
	MaxBackups int    `toml:"maxBackups" yaml:"maxBackups"`
	MaxAge     int    `toml:"maxAge" yaml:"maxAge"` // days
	Compress   bool   `toml:"compress" yaml:"compress"`
}

// DefaultConfig logs INFO and above to stderr.
var DefaultConfig = Config{
	Level:      "INFO",
	MaxSize:    100,
	MaxBackups: 10,
	MaxAge:     28,
}

func init() {
	if err := Setup(DefaultConfig); err != nil {
		panic(err)
	}
}

// NewLogger returns a logger for the given module name.
func NewLogger(module string) *logging.Logger {
	return logging.MustGetLogger(module)
}

// SetLevel changes the level of every module.
func SetLevel(level string) error {
	lvl, err := logging.LogLevel(level)
	if err != nil {
		return errors.Wrapf(err, "bad log level %q", level)
	}
	logging.SetLevel(lvl, "")
	return nil
}

// Setup installs the stderr backend and, when cfg.File is set, a rotating
// file backend.
func Setup(cfg Config) error {
	level := cfg.Level
	if level == "" {
		level = DefaultConfig.Level
	}
	lvl, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		return errors.Wrapf(err, "bad log level %q", cfg.Level)
	}

	mu.Lock()
	defer mu.Unlock()

	format := plainFormat
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		format = colorFormat
	}
	backends := []logging.Backend{
		logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), format),
	}

	if file != nil {
		file.Close()
		file = nil
	}
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		backends = append(backends, logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), plainFormat))
	}

	leveled := logging.SetBackend(backends...)
	leveled.SetLevel(lvl, "")
	return nil
}
