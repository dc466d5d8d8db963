package gorm

import (
	"fmt"
	"strings"
	"time"

	gormLogger "gorm.io/gorm/logger"

	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

// NewGormLogger creates a gorm logger that writes through the application logger.
// Unknown levels select Silent.
func NewGormLogger(level string) gormLogger.Interface {
	var gormLevel gormLogger.LogLevel
	switch strings.ToUpper(level) {
	case "ERROR":
		gormLevel = gormLogger.Error
	case "WARN":
		gormLevel = gormLogger.Warn
	case "INFO", "DEBUG":
		gormLevel = gormLogger.Info
	default:
		gormLevel = gormLogger.Silent
	}
	return gormLogger.New(&gormWriter{}, gormLogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// gormWriter routes statement traces to DEBUG and everything else to INFO.
type gormWriter struct{}

func (w *gormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if strings.Contains(msg, "SELECT") {
		logger.Debugf("[GORM] %s", msg)
		return
	}
	logger.Infof("[GORM] %s", msg)
}
