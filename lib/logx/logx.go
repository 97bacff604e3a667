// Package logx is a small category logger. It writes to stderr unless a log file is configured, in which case the
// file is rotated by size and age.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// Config sets the log destination. An empty Filename keeps logging on stderr.
type Config struct {
	Filename   string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"maxSizeMB" yaml:"maxSizeMB"`
	MaxAgeDays int    `json:"maxAgeDays" yaml:"maxAgeDays"`
	Debug      bool   `json:"debug" yaml:"debug"`
}

var (
	mu      sync.RWMutex
	logger  = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	closer  io.Closer
	envDbg  = os.Getenv("SUIADP_DEBUG") != ""
	debugOn = envDbg
)

// Init points the logger to the configured destination. It can be called again to reconfigure.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		_ = closer.Close()
		closer = nil
	}

	var w io.Writer = os.Stderr

	if cfg.Filename != "" {
		lj := &lumberjack.Logger{
			Filename: cfg.Filename,
			MaxSize:  cfg.MaxSizeMB, // megabytes, 0 means lumberjack's default
			MaxAge:   cfg.MaxAgeDays,
		}
		w = lj
		closer = lj
	}

	logger = log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	debugOn = envDbg || cfg.Debug
}

// SetOutput sends the log to w. Mostly useful for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	mu.Unlock()
}

func write(level, color, category string, content []interface{}) {
	message := fmt.Sprint(content...)
	coloredCategory := fmt.Sprintf("%s[%s][%s]%s", color, level, category, ColorReset)

	mu.RLock()
	logger.Printf("%s: %s", coloredCategory, message)
	mu.RUnlock()
}

func Info(category string, content ...interface{}) {
	write("INFO", ColorGreen, category, content)
}

func Error(category string, content ...interface{}) {
	write("ERROR", ColorRed, category, content)
}

func Warn(category string, content ...interface{}) {
	write("WARN", ColorYellow, category, content)
}

// Debug only writes when debugging was enabled through SUIADP_DEBUG or the config.
func Debug(category string, content ...interface{}) {
	mu.RLock()
	on := debugOn
	mu.RUnlock()

	if on {
		write("DEBUG", ColorBlue, category, content)
	}
}

// Errorf logs an error message and returns a formatted error
func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Error("ERROR", err.Error())

	return err
}
