package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const dayLayout = "2006-01-02"

// DailyRotator is an io.Writer over a lumberjack.Logger that also rotates the
// file on the first write of each new calendar day. Size based rotation stays
// with lumberjack.
type DailyRotator struct {
	mu     sync.Mutex
	out    *lumberjack.Logger
	now    func() time.Time
	day    string
	closed bool
}

// NewDailyRotator creates the log directory if needed and returns a rotator
// for filename. maxSize is in megabytes; zero values fall back to
// lumberjack's own defaults.
func NewDailyRotator(filename string, maxSize, maxBackups, maxAge int, compress bool) (*DailyRotator, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return newDailyRotator(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   compress,
		LocalTime:  true,
	}, time.Now), nil
}

func newDailyRotator(out *lumberjack.Logger, now func() time.Time) *DailyRotator {
	r := &DailyRotator{out: out, now: now}
	// A file left over from a previous day is rotated on the first write.
	if info, err := os.Stat(out.Filename); err == nil {
		r.day = info.ModTime().Format(dayLayout)
	}
	return r
}

// Write implements io.Writer.
func (r *DailyRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, os.ErrClosed
	}

	today := r.now().Format(dayLayout)
	if r.day != "" && r.day != today {
		if err := r.out.Rotate(); err != nil {
			return 0, fmt.Errorf("daily log rotation failed: %w", err)
		}
	}
	r.day = today
	return r.out.Write(p)
}

// Sync is a no-op; lumberjack writes straight to the file.
func (r *DailyRotator) Sync() error { return nil }

// Close closes the underlying file. Further writes fail with os.ErrClosed.
func (r *DailyRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.out.Close()
}
