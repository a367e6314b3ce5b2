// Package obs holds logging setup and the payload scrubber.
package obs

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogging configures logrus from the environment: level from
// TRANSFORMER_LOG_LEVEL, an optional rotating file sink from
// TRANSFORMER_LOG_FILE.
func InitLogging() {
	level, err := logrus.ParseLevel(strings.ToLower(envOr("TRANSFORMER_LOG_LEVEL", "info")))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if file := os.Getenv("TRANSFORMER_LOG_FILE"); file != "" {
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			Compress:   true,
		}
		logrus.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
