// Package log provides the structured logger facade shared by every
// package in this module. It mirrors the teacher's lib/master style of
// a package-level singleton obtained with L().
package log

import (
	"sync"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

var (
	globalLogger *zap.Logger
	globalOnce   sync.Once
)

// L returns the shared logger. The zero value lazily falls back to
// pingcap/log's default so packages never need a nil check.
func L() *zap.Logger {
	globalOnce.Do(func() {
		if globalLogger == nil {
			globalLogger = log.L()
		}
	})
	return globalLogger
}

// SetLogger overrides the shared logger, used by cmd/jetcoordd at
// startup once the configured log level/format is known.
func SetLogger(logger *zap.Logger) {
	globalLogger = logger
	globalOnce.Do(func() {})
}

// Field re-exports zap.Field so call sites only need to import this
// package for the common case.
type Field = zap.Field

var (
	String = zap.String
	Int64  = zap.Int64
	Int    = zap.Int
	Bool   = zap.Bool
	Error  = zap.Error
	Any    = zap.Any
)
