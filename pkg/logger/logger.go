// Package logger provides the colored console helpers used across the
// server and client binaries. The color/banner surface is kept from the
// original hand-rolled logger; the formatting and level-filtering machinery
// underneath it is now a logrus.Formatter over a real *logrus.Logger, so
// protocol events also carry the structured fields (role, and once a
// handshake completes, session and remote_addr) that internal/transport
// attaches.
package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ANSI color codes.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[37m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Log levels, kept for API compatibility with the original int-level scheme.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSuccess
)

var base = logrus.New()

func init() {
	base.SetFormatter(&consoleFormatter{timeFormat: "15:04:05", showTime: true})
	base.SetLevel(logrus.InfoLevel)
}

// Base returns the underlying *logrus.Logger, for packages (internal/transport,
// internal/httptoy) that want structured fields rather than the printf-style
// helpers below.
func Base() *logrus.Logger { return base }

// SetLevel sets the minimum level using the original int-level scheme.
func SetLevel(level int) {
	switch {
	case level <= LevelDebug:
		base.SetLevel(logrus.DebugLevel)
	case level <= LevelInfo, level == LevelSuccess:
		base.SetLevel(logrus.InfoLevel)
	case level <= LevelWarn:
		base.SetLevel(logrus.WarnLevel)
	default:
		base.SetLevel(logrus.ErrorLevel)
	}
}

// SetTimeFormat sets the console timestamp format.
func SetTimeFormat(format string) {
	if f, ok := base.Formatter.(*consoleFormatter); ok {
		f.timeFormat = format
	}
}

// ShowTime enables or disables the timestamp in console output.
func ShowTime(show bool) {
	if f, ok := base.Formatter.(*consoleFormatter); ok {
		f.showTime = show
	}
}

// Debug logs a debug message (gray).
func Debug(format string, args ...interface{}) { base.Debugf(format, args...) }

// Info logs an informational message (white).
func Info(format string, args ...interface{}) { base.Infof(format, args...) }

// Warn logs a warning message (yellow).
func Warn(format string, args ...interface{}) { base.Warnf(format, args...) }

// Error logs an error message (red).
func Error(format string, args ...interface{}) { base.Errorf(format, args...) }

// Success logs a success message (green). logrus has no built-in success
// level, so this is Info carrying a highlight field the formatter colors
// differently.
func Success(format string, args ...interface{}) {
	base.WithField("highlight", "success").Infof(format, args...)
}

// InfoCyan logs an info message in cyan, for special highlights.
func InfoCyan(format string, args ...interface{}) {
	base.WithField("highlight", "cyan").Infof(format, args...)
}

// Fatal logs a fatal error and exits.
func Fatal(format string, args ...interface{}) {
	base.Fatalf(format, args...)
}

// Section prints a section header directly to stdout (unaffected by level
// filtering — it's a banner, not a log line).
func Section(title string) {
	border := "═══════════════════════════════════════════════════════════"
	fmt.Printf("\n%s╔%s╗%s\n", ColorCyan, border, ColorReset)
	fmt.Printf("%s║%s %-57s %s║%s\n", ColorCyan, ColorReset, title, ColorCyan, ColorReset)
	fmt.Printf("%s╚%s╝%s\n\n", ColorCyan, border, ColorReset)
}

// Banner prints the application banner.
func Banner(title, version string) {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   ██████╗ ██╗   ██╗███████╗████████╗██████╗               ║
║   ██╔══██╗██║   ██║██╔════╝╚══██╔══╝██╔══██╗              ║
║   ██████╔╝██║   ██║█████╗     ██║   ██████╔╝              ║
║   ██╔══██╗██║   ██║██╔══╝     ██║   ██╔═══╝               ║
║   ██║  ██║╚██████╔╝██║        ██║   ██║                   ║
║   ╚═╝  ╚═╝ ╚═════╝ ╚═╝        ╚═╝   ╚═╝                   ║
║                                                           ║
║              %s%-37s%s║
║                    %sVersion %-7s%s                      ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, ColorCyan, title, ColorReset, ColorGreen, version, ColorReset)
}

// consoleFormatter renders logrus entries the way the original hand-rolled
// logger did: "[time] COLOR[LEVEL]RESET message".
type consoleFormatter struct {
	timeFormat string
	showTime   bool
}

func (f *consoleFormatter) Format(e *logrus.Entry) ([]byte, error) {
	color, prefix := colorFor(e)

	timestamp := ""
	if f.showTime {
		timestamp = fmt.Sprintf("%s[%s]%s ", ColorGray, e.Time.Format(f.timeFormat), ColorReset)
	}

	line := fmt.Sprintf("%s%s[%s]%s %s\n", timestamp, color, prefix, ColorReset, e.Message)
	return []byte(line), nil
}

func colorFor(e *logrus.Entry) (color, prefix string) {
	if h, ok := e.Data["highlight"]; ok {
		switch h {
		case "success":
			return ColorGreen, "SUCCESS"
		case "cyan":
			return ColorCyan, "INFO"
		}
	}

	switch e.Level {
	case logrus.DebugLevel:
		return ColorGray, "DEBUG"
	case logrus.WarnLevel:
		return ColorYellow, "WARN"
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return ColorRed, levelName(e.Level)
	default:
		return ColorWhite, "INFO"
	}
}

func levelName(l logrus.Level) string {
	switch l {
	case logrus.FatalLevel:
		return "FATAL"
	case logrus.PanicLevel:
		return "PANIC"
	default:
		return "ERROR"
	}
}
