package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Init configures the process-wide structured logger. JSON to stdout so
// the container runtime can ship lines as-is.
func Init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

func Info(event string, fields map[string]interface{}) {
	log.WithFields(logrus.Fields(fields)).Info(event)
}

func InfoWithUser(userID string, event string, fields map[string]interface{}) {
	log.WithField("user_id", userID).WithFields(logrus.Fields(fields)).Info(event)
}

func Warn(event string, fields map[string]interface{}) {
	log.WithFields(logrus.Fields(fields)).Warn(event)
}

func Error(event string, err error, fields map[string]interface{}) {
	entry := log.WithFields(logrus.Fields(fields))
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(event)
}
