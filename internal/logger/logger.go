package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
)

// Setup initializes Logrus, writing to a rotating file when path is set and
// to stderr otherwise.
func Setup(path, level string) {
	var out io.Writer = os.Stderr
	if path != "" {
		// 1) Lumberjack for file rotation
		out = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 7,  // keep up to 7 old files
			MaxAge:     7,  // days
			Compress:   true,
		}
	}

	// 2) Configure Logrus to write there
	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// Writer returns the writer Logrus is logging to, so request logs can share it.
func Writer() io.Writer {
	return logrus.StandardLogger().Out
}
