package logs

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger: глобальный логгер приложения. До Init пишет в stdout на уровне info.
var Logger = logrus.New()

// Options: параметры инициализации логгера.
type Options struct {
	Level  string // trace|debug|info|warning|error|fatal
	Format string // text|json
	File   string // путь/префикс лог-файла; если пусто: только stdout
}

// Init настраивает глобальный логгер по переданным опциям.
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	Logger = l
	return nil
}

// New собирает логгер без подмены глобального (нужно тестам и CLI).
func New(opts Options) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetLevel(parseLevel(opts.Level))

	if opts.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.File == "" {
		l.SetOutput(os.Stdout)
		return l, nil
	}
	name := fmt.Sprintf("%s_%s.log", opts.File, time.Now().Format("2006-01-02_15-04-05"))
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", name, err)
	}
	l.SetOutput(io.MultiWriter(file, os.Stdout))
	return l, nil
}

func parseLevel(s string) logrus.Level {
	switch strings.ToLower(s) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warning", "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
