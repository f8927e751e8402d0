package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ispplus/ispplus/internal/config"
)

const timeFormat = "2006-01-02 15:04:05"

// Apply sets the global log level and output writers (console, plus a
// rotating file when cfg.File is set).
func Apply(cfg config.LogConfig) {
	applyLevel(cfg.Level)
	log.Logger = zerolog.New(outputs(os.Stdout, cfg)).With().Timestamp().Logger()
}

// SetVerbosity raises the level for -v (debug) and -vv (trace). Zero keeps
// whatever level Apply configured.
func SetVerbosity(verbosity int) {
	switch {
	case verbosity == 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case verbosity >= 2:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
}

func applyLevel(level string) {
	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func outputs(console io.Writer, cfg config.LogConfig) io.Writer {
	consoleOutput := zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}
	if cfg.File == "" {
		return consoleOutput
	}

	if err := ensureLogDir(cfg.File); err != nil {
		l := zerolog.New(consoleOutput)
		l.Error().Err(err).Str("path", cfg.File).
			Msg("Failed to prepare log directory; logging to console only")
		return consoleOutput
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	fileConsole := zerolog.ConsoleWriter{
		Out:        fileWriter,
		TimeFormat: timeFormat,
		NoColor:    true,
	}

	return zerolog.MultiLevelWriter(consoleOutput, fileConsole)
}

// FilePathForDB returns a log file path that lives alongside the database file.
func FilePathForDB(dbPath string) string {
	const name = "ispplus.log"
	if dbPath == "" {
		return name
	}
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return filepath.Join(filepath.Dir(dbPath), name)
	}
	return filepath.Join(filepath.Dir(absDBPath), name)
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
