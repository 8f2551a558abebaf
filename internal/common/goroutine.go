// -----------------------------------------------------------------------
// Panic capture for pipeline goroutines
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ternarybob/arbor"
)

// PanicError carries a recovered panic value and the stack of the goroutine that raised it.
type PanicError struct {
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// RecoverPanic must be deferred directly. It converts a panic in the current goroutine
// into a *PanicError, logs it and hands it to onPanic so the caller can record a failure
// instead of crashing the process.
//
// Example:
//
//	defer common.RecoverPanic(logger, "pipeline:AAPL", func(err *common.PanicError) {
//	    outcome = failed(stage, err)
//	})
func RecoverPanic(logger arbor.ILogger, name string, onPanic func(err *PanicError)) {
	r := recover()
	if r == nil {
		return
	}

	perr := &PanicError{Value: r, Stack: GetStackTrace()}

	if logger != nil {
		logger.Error().
			Str("goroutine", name).
			Str("panic", fmt.Sprintf("%v", r)).
			Str("stack", perr.Stack).
			Msg("Recovered from panic in goroutine - continuing run")
	} else {
		fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, perr.Stack)
	}

	if onPanic != nil {
		onPanic(perr)
	}
}

// GetStackTrace returns the current goroutine's stack trace.
func GetStackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false) // false = current goroutine only
	return string(buf[:n])
}
