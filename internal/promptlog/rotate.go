package promptlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingFile is an append-only file that rolls over at every local midnight
// and keeps a bounded number of backups. Writes are safe for concurrent use.
type RotatingFile struct {
	file   *lumberjack.Logger
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time
	logger *slog.Logger

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type RotateOptions struct {
	MaxBackups int
	MaxSizeMB  int
	// Now overrides the clock used to schedule rotation.
	Now func() time.Time
	// After overrides the timer that waits for midnight.
	After func(time.Duration) <-chan time.Time
	// Logger receives rotation failures.
	Logger *slog.Logger
}

func OpenRotatingFile(path string, opts RotateOptions) (*RotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	after := opts.After
	if after == nil {
		after = time.After
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	rf := &RotatingFile{
		file: &lumberjack.Logger{
			Filename:   path,
			MaxBackups: opts.MaxBackups,
			MaxSize:    opts.MaxSizeMB,
			LocalTime:  true,
		},
		now:    now,
		after:  after,
		logger: logger,
		stop:   make(chan struct{}),
	}

	rf.wg.Add(1)
	go rf.rotateDaily()
	return rf, nil
}

func (f *RotatingFile) Write(p []byte) (int, error) {
	return f.file.Write(p)
}

func (f *RotatingFile) Rotate() error {
	return f.file.Rotate()
}

func (f *RotatingFile) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.stop)
		f.wg.Wait()
		err = f.file.Close()
	})
	return err
}

func (f *RotatingFile) rotateDaily() {
	defer f.wg.Done()
	for {
		select {
		case <-f.stop:
			return
		case <-f.after(UntilMidnight(f.now())):
			if err := f.file.Rotate(); err != nil {
				f.logger.Warn("midnight log rotation failed", "path", f.file.Filename, "error", err)
			}
		}
	}
}

// UntilMidnight returns the wait until the next local midnight after t.
func UntilMidnight(t time.Time) time.Duration {
	y, m, d := t.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	return next.Sub(t)
}
