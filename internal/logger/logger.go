// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Level      string
	JSON       bool
	File       string // optional rotating file sink, written alongside stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup installs the formatter, level and outputs on the standard logrus
// logger. The returned close func flushes the file sink, if any.
func Setup(opts Options) (func() error, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if opts.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "msg"},
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.File == "" {
		logrus.SetOutput(os.Stdout)
		return func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, err
	}
	sink := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSizeMB, 50),
		MaxBackups: orDefault(opts.MaxBackups, 7),
		MaxAge:     orDefault(opts.MaxAgeDays, 14),
		Compress:   true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, sink))
	logrus.WithFields(logrus.Fields{"file": opts.File, "level": level.String()}).Info("Logger online")
	return sink.Close, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
