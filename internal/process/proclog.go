package process

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const logDelimiter = "================================================================================"

const timeLayout = "2006-01-02 15:04:05"

// procLog is the dedicated per-service process log. It is truncated and
// given a structured header on every start; afterwards it is append-only
// until the exit footer. The header/footer layout is a contract for anyone
// tailing these files, so it is written verbatim rather than through slog.
//
// A single procLog has multiple writers (the capture pump, the stop
// sequence, the exit waiter); writes are serialized here. Mid-life write
// errors are swallowed: a broken log sink must never abort supervision.
type procLog struct {
	mu     sync.Mutex
	f      *os.File
	closed bool
}

// openProcLog truncates path and writes the startup header for the named
// service launching execPath.
func openProcLog(path, display, execPath string) (*procLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	l := &procLog{f: f}
	now := time.Now().Format(timeLayout)
	l.linef("--- %s Started at %s ---", display, now)
	l.linef("--- Log cleared at startup ---")
	l.linef("--- %s executable: %s ---", display, execPath)
	l.line(logDelimiter)
	return l, nil
}

// launchDetails records the pre-spawn diagnostics block.
func (l *procLog) launchDetails(display, absPath, workDir string) {
	exists := false
	size := "N/A"
	if fi, err := os.Stat(absPath); err == nil {
		exists = true
		size = fmt.Sprintf("%d", fi.Size())
	}
	l.linef("--- Attempting to start %s ---", display)
	l.linef("--- Absolute path: %s ---", absPath)
	l.linef("--- Working directory: %s ---", workDir)
	l.linef("--- File exists: %v ---", exists)
	l.linef("--- File size: %s ---", size)
}

func (l *procLog) started(pid int, workDir string) {
	l.linef("--- Process started with PID: %d ---", pid)
	l.linef("--- Working directory: %s ---", workDir)
}

func (l *procLog) shutdownBegin(display string) {
	l.linef("")
	l.linef("--- Starting %s shutdown at %s ---", display, time.Now().Format(timeLayout))
}

func (l *procLog) stage(format string, args ...any) { l.linef(format, args...) }

// footer writes the exit record and closes the file.
func (l *procLog) footer(display string, code int) {
	l.line(logDelimiter)
	l.linef("--- %s Stopped at %s ---", display, time.Now().Format(timeLayout))
	l.linef("--- Return code: %d ---", code)
	l.line(logDelimiter)
	l.close()
}

// failure appends an error record and closes the file.
func (l *procLog) failure(msg string) {
	l.line(logDelimiter)
	l.line(msg)
	l.close()
}

func (l *procLog) linef(format string, args ...any) {
	l.line(fmt.Sprintf(format, args...))
}

func (l *procLog) line(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, _ = l.f.WriteString(s)
	_ = l.f.Sync()
}

// raw appends captured process output verbatim (already prefixed/newlined).
func (l *procLog) raw(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	_, _ = l.f.WriteString(s)
}

func (l *procLog) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	_ = l.f.Close()
}
