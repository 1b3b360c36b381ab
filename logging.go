package typelib

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// logger holds the package logger. Conversion is silent in normal
// operation; the logger only carries degradation warnings, e.g. a
// record field whose declared type has no usable routine.
var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// SetLogger replaces the package logger. Pass nil to silence
// diagnostics again.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

func log() *zap.Logger { return logger.Load() }
