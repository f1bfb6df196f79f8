// Package logging builds the console logger used across the tool
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	gray = lipgloss.Color("245")
	blue = lipgloss.Color("39")
	red  = lipgloss.Color("196")
	gold = lipgloss.Color("214")
)

// Styles colours levels the way the tool always has: debug gray, info blue, errors red
func Styles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().SetString("DEBUG").Bold(true).Foreground(gray)
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().SetString("INFO").Bold(true).Foreground(blue)
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().SetString("WARN").Bold(true).Foreground(gold)
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().SetString("ERROR").Bold(true).Foreground(red)
	styles.Levels[log.FatalLevel] = lipgloss.NewStyle().SetString("FATAL").Bold(true).Foreground(red)
	styles.Message = lipgloss.NewStyle()
	styles.Key = lipgloss.NewStyle().Foreground(gray)
	return styles
}

// ParseLevel accepts debug, info, warn, error and fatal, case-insensitively
func ParseLevel(level string) (log.Level, error) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
	return lvl, nil
}

// New returns a logger writing to w. An unknown level falls back to info.
func New(w io.Writer, level string) *log.Logger {
	lvl, err := ParseLevel(level)
	logger := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: false,
	})
	logger.SetStyles(Styles())
	if err != nil {
		logger.Warn("falling back to info", "err", err)
	}
	return logger
}

// Discard returns a logger that writes nothing
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
