package bundle

import (
	"fmt"

	"github.com/ije/gox/log"
)

// defaultLogger mirrors the teacher's package-scoped `log *logx.Logger`
// singleton in server/server.go; it is shared by every session and never
// reconfigured, so sessions get a working logger instead of a nil-pointer
// trap.
var defaultLogger = &log.Logger{}

// The log*f methods write through defaultLogger and forward the message to
// the matching event-bus topic (LOGGER_LOG, LOGGER_INFO, LOGGER_WARN,
// LOGGER_ERROR), so a subscriber can mirror session logs without depending
// on the logx type directly.
func (s *Session) logDebugf(format string, args ...any) {
	defaultLogger.Debugf(format, args...)
	s.events.DispatchEvent(TopicLoggerLog, fmtSprintf(format, args...))
}

func (s *Session) logInfof(format string, args ...any) {
	defaultLogger.Infof(format, args...)
	s.events.DispatchEvent(TopicLoggerInfo, fmtSprintf(format, args...))
}

func (s *Session) logWarnf(format string, args ...any) {
	defaultLogger.Warnf(format, args...)
	s.events.DispatchEvent(TopicLoggerWarn, fmtSprintf(format, args...))
}

func (s *Session) logErrorf(format string, args ...any) {
	defaultLogger.Errorf(format, args...)
	s.events.DispatchEvent(TopicLoggerError, fmtSprintf(format, args...))
}

func fmtSprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
