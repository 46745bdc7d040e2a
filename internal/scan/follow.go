package scan

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"logsieve/internal/logging"
)

// followWakeups paces how often end-of-file triggers a re-read, so a
// burst of write notifications coalesces into one.
var followWakeups = rate.Every(200 * time.Millisecond)

// followPollInterval is the fallback re-check period for filesystems
// with unreliable change notification.
const followPollInterval = time.Second

// followReader wraps an open log file and blocks at end of file until
// the file grows. The stream ends (io.EOF) when the context is
// canceled or when the file is truncated, rotated, or removed; a
// truncated file cannot be resumed by a forward-only pass.
type followReader struct {
	ctx     context.Context
	f       *os.File
	path    string
	watcher *fsnotify.Watcher
	limiter *rate.Limiter
	logger  *slog.Logger
	offset  int64
}

func newFollowReader(ctx context.Context, f *os.File, path string, logger *slog.Logger) (*followReader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return &followReader{
		ctx:     ctx,
		f:       f,
		path:    path,
		watcher: watcher,
		limiter: rate.NewLimiter(followWakeups, 1),
		logger:  logging.Default(logger),
	}, nil
}

func (r *followReader) Read(p []byte) (int, error) {
	for {
		n, err := r.f.Read(p)
		if n > 0 {
			r.offset += int64(n)
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if err := r.wait(); err != nil {
			return 0, err
		}
	}
}

// wait blocks until the file has grown past the read offset. It
// returns io.EOF to end the stream gracefully.
func (r *followReader) wait() error {
	if err := r.limiter.Wait(r.ctx); err != nil {
		return io.EOF
	}
	for {
		info, err := os.Stat(r.path)
		if err != nil {
			r.logger.Warn("followed file is gone, stopping", "path", r.path, "error", err)
			return io.EOF
		}
		if info.Size() < r.offset {
			r.logger.Warn("followed file truncated, stopping", "path", r.path)
			return io.EOF
		}
		if info.Size() > r.offset {
			return nil
		}

		select {
		case <-r.ctx.Done():
			return io.EOF
		case event, ok := <-r.watcher.Events:
			if !ok {
				return io.EOF
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				r.logger.Warn("followed file rotated, stopping", "path", r.path)
				return io.EOF
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return io.EOF
			}
			r.logger.Warn("watch error", "path", r.path, "error", err)
		case <-time.After(followPollInterval):
		}
	}
}

func (r *followReader) Close() error {
	return r.watcher.Close()
}
