// Package clog provides the structured-logging wrapper shared by every
// package in chronocore. It is a thin façade over logrus so that call
// sites never import logrus directly, matching the indirection the
// teacher repo keeps between its packages and modules/trace.
package clog

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
)

// L is the package-wide logger. Tests may swap its output or level.
var L = logrus.New()

func init() {
	L.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func location(skip int) (string, int) {
	pc, _, line, ok := runtime.Caller(skip)
	if !ok {
		return "?", line
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "?", line
	}
	return fn.Name(), line
}

// Errorf logs an error at the call site and returns it as a plain error,
// so the caller can both log and propagate in one line.
func Errorf(format string, a ...any) error {
	fn, line := location(2)
	msg := fmt.Sprintf(format, a...)
	L.WithField("at", fmt.Sprintf("%s:%d", fn, line)).Error(msg)
	return fmt.Errorf("%s", msg)
}

// Debugf logs at debug level with the calling package attached as a field.
func Debugf(format string, a ...any) {
	fn, line := location(2)
	L.WithField("at", fmt.Sprintf("%s:%d", fn, line)).Debugf(format, a...)
}

// Field is re-exported so callers don't need a direct logrus import for
// the common case of attaching one structured field.
func Field(key string, value any) *logrus.Entry {
	return L.WithField(key, value)
}
