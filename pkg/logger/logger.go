package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"pdf-layout-annotator/internal/domain"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// Format selects how a log line is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// AppLogger implements the domain.Logger interface
type AppLogger struct {
	level  LogLevel
	format Format
	fields []interface{}

	mu     *sync.Mutex
	logger *log.Logger
}

// NewLogger creates a text logger writing to stdout
func NewLogger(levelStr string) domain.Logger {
	return New(os.Stdout, levelStr, string(FormatText))
}

// New creates a logger writing to w in the given format ("text" or "json").
func New(w io.Writer, levelStr string, formatStr string) *AppLogger {
	format := FormatText
	if strings.EqualFold(formatStr, string(FormatJSON)) {
		format = FormatJSON
	}
	return &AppLogger{
		level:  parseLogLevel(levelStr),
		format: format,
		mu:     &sync.Mutex{},
		logger: log.New(w, "", 0),
	}
}

// With returns a logger that prepends the given key/value pairs to every line.
func (l *AppLogger) With(fields ...interface{}) domain.Logger {
	merged := make([]interface{}, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &AppLogger{
		level:  l.level,
		format: l.format,
		fields: merged,
		mu:     l.mu,
		logger: l.logger,
	}
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	if l.level <= INFO {
		l.log("INFO", msg, fields...)
	}
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	if l.level <= ERROR {
		allFields := append([]interface{}{"error", err}, fields...)
		l.log("ERROR", msg, allFields...)
	}
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	if l.level <= DEBUG {
		l.log("DEBUG", msg, fields...)
	}
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	if l.level <= WARN {
		l.log("WARN", msg, fields...)
	}
}

func (l *AppLogger) log(level, msg string, fields ...interface{}) {
	all := make([]interface{}, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	var line string
	if l.format == FormatJSON {
		line = l.jsonLine(level, msg, all)
	} else {
		line = l.textLine(level, msg, all)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Println(line)
}

func (l *AppLogger) textLine(level, msg string, fields []interface{}) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logMsg := fmt.Sprintf("[%s] %s: %s", timestamp, level, msg)

	fieldStrs := make([]string, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		fieldStrs = append(fieldStrs, fmt.Sprintf("%v=%v", fields[i], fields[i+1]))
	}
	if len(fieldStrs) > 0 {
		logMsg += " " + strings.Join(fieldStrs, " ")
	}
	return logMsg
}

// jsonLine renders one entry with the field names log aggregators expect
// (severity, message, time).
func (l *AppLogger) jsonLine(level, msg string, fields []interface{}) string {
	entry := map[string]interface{}{
		"severity": level,
		"message":  msg,
		"time":     time.Now().UTC().Format(time.RFC3339Nano),
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok {
			entry[key] = err.Error()
			continue
		}
		entry[key] = fields[i+1]
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"severity":%q,"message":%q}`, level, msg)
	}
	return string(data)
}

// parseLogLevel converts string log level to LogLevel enum
func parseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}
