package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	ERROR Level = iota
	WARN
	INFO
	DEBUG
)

func ParseLevel(lvl string) (Level, error) {
	switch strings.ToLower(lvl) {
	case "error":
		return ERROR, nil
	case "warn":
		return WARN, nil
	case "info":
		return INFO, nil
	case "debug":
		return DEBUG, nil
	}
	return INFO, fmt.Errorf("invalid log level: %s", lvl)
}

// Logger is a simple leveled logger.
type Logger struct {
	level Level
	out   *log.Logger
}

// New creates a Logger writing to stderr.
func New(level Level) *Logger {
	return NewWithOutput(level, os.Stderr)
}

// NewWithOutput creates a Logger writing to w.
func NewWithOutput(level Level, w io.Writer) *Logger {
	return &Logger{
		level: level,
		out:   log.New(w, "", log.LstdFlags),
	}
}

// Errorf prints a formatted error message.
func (l *Logger) Errorf(format string, v ...any) {
	if l.level >= ERROR {
		l.out.Printf(format, v...)
	}
}

// Warnf prints a formatted warning message.
func (l *Logger) Warnf(format string, v ...any) {
	if l.level >= WARN {
		l.out.Printf(format, v...)
	}
}

// Infof prints a formatted info message.
func (l *Logger) Infof(format string, v ...any) {
	if l.level >= INFO {
		l.out.Printf(format, v...)
	}
}

// Debugf prints a formatted debug message.
func (l *Logger) Debugf(format string, v ...any) {
	if l.level >= DEBUG {
		l.out.Printf(format, v...)
	}
}
