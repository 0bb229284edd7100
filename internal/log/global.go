package log

import "sync/atomic"

var global atomic.Pointer[Logger]

// SetDefaultLogger replaces the logger returned by DefaultLogger
func SetDefaultLogger(logger *Logger) {
	global.Store(logger)
}

// DefaultLogger returns the logger installed by SetDefaultLogger, or a text
// logger on stderr when none was installed.
func DefaultLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	global.CompareAndSwap(nil, Default())
	return global.Load()
}
