package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is a log severity. Entries below the configured level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel parses a level name (debug, info, warn, error). Empty means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger writes component-tagged entries to the session log.
// All components of one process share a single session file in
// ~/.notes-agent/logs/ (or the directory set via Configure). The file is
// opened on first write so that Configure can run after package init.
type Logger struct {
	component string
}

// Options configures the shared session sink.
type Options struct {
	// Dir overrides the log directory. Empty keeps the default.
	Dir string

	// Level is the minimum level written.
	Level Level

	// Writer, if set, receives entries instead of a file.
	Writer io.Writer
}

type sessionSink struct {
	mu      sync.Mutex
	opened  bool
	dir     string
	level   Level
	writer  io.Writer
	file    *os.File
	logger  *log.Logger
	logPath string
	openErr error
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	sink = &sessionSink{level: LevelInfo}
)

// getSessionID returns or creates the session ID for this execution
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func defaultLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".notes-agent", "logs"), nil
}

// Configure sets the sink options. It closes a file opened by an earlier
// write so the next entry goes to the new destination.
func Configure(opts Options) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if sink.file != nil {
		_ = sink.file.Close()
	}
	sink.file = nil
	sink.logger = nil
	sink.logPath = ""
	sink.openErr = nil
	sink.opened = false

	sink.dir = opts.Dir
	sink.level = opts.Level
	sink.writer = opts.Writer

	if sink.writer != nil {
		return nil
	}
	return sink.openLocked()
}

// openLocked opens the session file or falls back to stderr. Caller holds mu.
func (s *sessionSink) openLocked() error {
	s.opened = true

	if s.writer != nil {
		s.logger = log.New(s.writer, "", 0)
		return nil
	}

	dir := s.dir
	if dir == "" {
		d, err := defaultLogDir()
		if err != nil {
			return s.fallbackLocked(err)
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return s.fallbackLocked(fmt.Errorf("failed to create log directory: %w", err))
	}

	logPath := filepath.Join(dir, fmt.Sprintf("%s-notes-agent.log", getSessionID()))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return s.fallbackLocked(fmt.Errorf("failed to open log file: %w", err))
	}

	s.file = file
	s.logPath = logPath
	s.logger = log.New(file, "", 0) // timestamps are formatted per entry
	return nil
}

// fallbackLocked switches the sink to stderr when file logging fails.
func (s *sessionSink) fallbackLocked(err error) error {
	s.logger = log.New(os.Stderr, "", 0)
	s.logger.Printf("WARNING: Failed to initialize file logging: %v", err)
	s.logger.Printf("Falling back to stderr logging")
	s.openErr = err
	return err
}

func (s *sessionSink) write(level Level, component, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.level {
		return
	}
	if !s.opened {
		_ = s.openLocked()
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	s.logger.Println(fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, component, level, message))
}

// MustComponent returns a logger for a component without touching the
// filesystem. Use it for package-level loggers created during init.
func MustComponent(component string) *Logger {
	return &Logger{component: component}
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	sink.write(LevelDebug, l.component, fmt.Sprintf(format, v...))
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	sink.write(LevelInfo, l.component, fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	sink.write(LevelWarn, l.component, fmt.Sprintf(format, v...))
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	sink.write(LevelError, l.component, fmt.Sprintf(format, v...))
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// LogPath returns the path of the session file, or "" when logging to a
// writer or stderr.
func LogPath() string {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return sink.logPath
}

// Close closes the session file. Safe to call multiple times.
func Close() error {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	var err error
	if sink.file != nil {
		err = sink.file.Close()
		sink.file = nil
	}
	sink.opened = false
	sink.logger = nil
	return err
}
