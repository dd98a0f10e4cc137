package observability

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/chuckie/autocommit/internal/security"
)

var (
	initOnce sync.Once
	logFile  *os.File
	logPath  string
	logger   = zerolog.Nop()
	redactor = security.NewRedactor()
	initErr  error
)

// Options configures Init.
type Options struct {
	// Path of the log file. Empty means DefaultPath().
	Path string
	// Verbose adds human-readable debug output on Console.
	Verbose bool
	Console io.Writer
}

// DefaultPath returns <user cache dir>/autocommit/autocommit.log, falling
// back to the working directory when no cache dir is available.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "autocommit.log"
	}
	return filepath.Join(dir, "autocommit", "autocommit.log")
}

// Init configures the process logger: JSON lines appended to a local file,
// plus a console writer when verbose. Verbose also lowers the level from
// info to debug. Failing to open the file is reported but leaves console
// logging in place.
func Init(opts Options) (path string, cleanup func(), err error) {
	initOnce.Do(func() {
		logPath = opts.Path
		if logPath == "" {
			logPath = DefaultPath()
		}

		dir := filepath.Dir(logPath)
		if dir != "." && dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}

		var file io.Writer
		logFile, initErr = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if initErr == nil {
			file = logFile
		}

		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		logger = New(file, console, opts.Verbose)
	})

	cleanup = func() {
		if logFile != nil {
			_ = logFile.Close()
		}
	}

	return logPath, cleanup, initErr
}

// New builds a logger writing JSON to file (if non-nil) and, when verbose,
// console output to console.
func New(file, console io.Writer, verbose bool) zerolog.Logger {
	var writers []io.Writer
	level := zerolog.InfoLevel

	if file != nil {
		writers = append(writers, file)
	}
	if verbose && console != nil {
		level = zerolog.DebugLevel
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen})
	}
	if len(writers) == 0 {
		return zerolog.Nop()
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Logger returns the process logger. It discards everything until Init runs.
func Logger() *zerolog.Logger {
	return &logger
}

// Path returns the configured log file path (empty if Init hasn't run yet).
func Path() string {
	return logPath
}

// RedactForLog removes common secret patterns from logs.
func RedactForLog(s string) string {
	return redactor.RedactLog(s)
}

// Snip returns a safe prefix of s, capped by rune count.
func Snip(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}

	n := 0
	idx := 0
	for idx < len(s) {
		if n >= maxRunes {
			break
		}
		_, size := utf8.DecodeRuneInString(s[idx:])
		if size <= 0 {
			break
		}
		idx += size
		n++
	}

	if idx >= len(s) {
		return s
	}
	return s[:idx] + "…"
}
