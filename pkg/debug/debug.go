// Package debug provides conditional debug logging for cmap.
//
// Debug logging is enabled by setting the CMAP_DEBUG environment variable:
//
//	CMAP_DEBUG=1 cmap render geometry.json -o map.png
//
// When disabled (default), every function here is a no-op.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

const prefix = "[CMAP_DEBUG] "

var (
	mu      sync.Mutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("CMAP_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output. The TUI uses this to keep stderr clean
// while the alternate screen is active.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
}

func printf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled || logger == nil {
		return
	}
	logger.Printf(format, args...)
}

// Log writes a printf-style debug message.
func Log(format string, args ...any) {
	printf(format, args...)
}

// LogTiming writes a timing message.
func LogTiming(name string, d time.Duration) {
	printf("%s took %v", name, d)
}

// LogIf writes a debug message only if cond holds.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	printf(format, args...)
}

// LogEnterExit logs function entry and exit with timing:
//
//	defer debug.LogEnterExit("layout.ApplyRadial")()
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	printf("-> %s", name)
	start := time.Now()
	return func() {
		printf("<- %s (%v)", name, time.Since(start))
	}
}

// Section logs a section header.
func Section(name string) {
	printf("=== %s ===", name)
}

// Assert panics if cond is false. Only active when debug is enabled.
func Assert(cond bool, msg string) {
	if !Enabled() || cond {
		return
	}
	printf("ASSERTION FAILED: %s", msg)
	panic(fmt.Sprintf("debug assertion failed: %s", msg))
}
