package logging

import (
	"os"
	"sync"
	"testing"
)

var (
	// reuse the same logger across all tests
	testingLoggerMu sync.Mutex
	testingLogger   Logger
)

// NewTesting returns a Logger that writes to stdout when tests are run with
// -v, and discards everything otherwise.
//
// It must be called inside a test, not in an init func, because the verbose
// flag is only set once tests run.
func NewTesting() Logger {
	testingLoggerMu.Lock()
	defer testingLoggerMu.Unlock()
	if testingLogger != nil {
		return testingLogger
	}

	if testing.Verbose() {
		testingLogger = MustNew(os.Stdout, FormatPlain, LevelDebug)
	} else {
		testingLogger = NewNop()
	}

	return testingLogger
}
