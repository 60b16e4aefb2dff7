package logging

import "log/slog"

// EnableTrace switches on Trace output. Set by the TRACE level.
var EnableTrace = false

// Trace logs at DEBUG level when EnableTrace is set. Used for per-event logs
// such as every surface event handled by the control.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if EnableTrace {
		logger.Debug(msg, args...)
	}
}
