package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrz1836/cadence/internal/config"
	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/logging"
)

// zerologConfigOnce ensures zerolog global field names are set exactly once.
var zerologConfigOnce sync.Once //nolint:gochecknoglobals // One-time configuration

// configureZerologGlobals renames the timestamp and message fields so log
// lines read as {"ts":..., "event":...}.
func configureZerologGlobals() {
	zerologConfigOnce.Do(func() {
		zerolog.TimestampFieldName = "ts"
		zerolog.MessageFieldName = "event"
	})
}

// InitLogger builds the invocation logger.
//
// Log levels are set as follows:
//   - verbose=true: Debug level
//   - quiet=true: Warn level
//   - default: Info level
//
// Console output goes to stderr: a human-readable console writer on a TTY,
// JSON otherwise. Every line is also appended to <repo>/.cadence/logs/cadence.log
// with rotation. If the log file cannot be created the logger continues with
// console-only output and the returned closer is nil.
func InitLogger(repo string, verbose, quiet bool, stderr io.Writer) (zerolog.Logger, io.Closer) {
	configureZerologGlobals()

	console := selectOutput(stderr)
	var writer io.Writer = console

	fileWriter, err := createLogFileWriter(repo)
	if err == nil {
		writer = zerolog.MultiLevelWriter(console, fileWriter)
	}

	logger := zerolog.New(writer).
		Level(selectLevel(verbose, quiet)).
		Hook(logging.NewSensitiveDataHook()).
		With().Timestamp().Logger()

	if err != nil {
		logger.Debug().Err(err).Msg("log file unavailable, logging to console only")
		return logger, nil
	}
	return logger, fileWriter
}

// InitLoggerWithWriter creates a logger writing only to w. Intended for tests.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	configureZerologGlobals()
	return zerolog.New(w).
		Level(selectLevel(verbose, quiet)).
		Hook(logging.NewSensitiveDataHook()).
		With().Timestamp().Logger()
}

func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// selectOutput wraps stderr in a console writer when it is a color-capable
// terminal.
func selectOutput(stderr io.Writer) io.Writer {
	f, ok := stderr.(*os.File)
	if ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == "" { //#nosec G115 -- fd fits in int
		return zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: time.Kitchen,
		}
	}
	return stderr
}

// filteringWriteCloser redacts secrets before they reach the log file.
type filteringWriteCloser struct {
	filter *logging.FilteringWriter
	closer io.Closer
}

func (fwc *filteringWriteCloser) Write(p []byte) (int, error) {
	return fwc.filter.Write(p)
}

func (fwc *filteringWriteCloser) Close() error {
	return fwc.closer.Close()
}

func createLogFileWriter(repo string) (io.WriteCloser, error) {
	logPath := LogFilePath(repo)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}

	return &filteringWriteCloser{
		filter: logging.NewFilteringWriter(lj),
		closer: lj,
	}, nil
}

// LogFilePath returns <repo>/.cadence/logs/cadence.log.
func LogFilePath(repo string) string {
	return filepath.Join(config.StateDir(repo), constants.LogsDir, constants.CLILogFileName)
}
