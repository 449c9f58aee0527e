package loggerfx

import (
	"log"

	"github.com/sirupsen/logrus"
)

// DefaultLoggerAdapter exposes the logrus logger as a standard *log.Logger
// for libraries that accept nothing else (e.g. http.Server.ErrorLog).
func DefaultLoggerAdapter(logger *logrus.Logger) *log.Logger {
	return log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0)
}
