// Package proxyfile retrieves pilot proxy material from disk. The file may
// be rewritten concurrently by its legitimate owner and may only be
// readable after temporarily adopting the real (unprivileged) identity, so
// reads are privilege-aware, advisory-locked and stability-checked.
package proxyfile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gridsec/pilotproxy/internal/core/domain"
	"github.com/gridsec/pilotproxy/internal/core/errors"
	"github.com/gridsec/pilotproxy/internal/core/ports"
)

// Options configures a Reader. Zero values select the defaults the
// deployed middleware has always used.
type Options struct {
	// Lock selects the advisory locking mechanism used to serialize
	// against cooperating writers.
	Lock domain.LockPolicy

	// MaxAttempts bounds the read/stat stability loop.
	MaxAttempts int

	// RetryPause is the pause between attempts, giving a fast writer time
	// to finish.
	RetryPause time.Duration

	// OnRetry, when set, is invoked once per stability-loop retry.
	OnRetry func()

	// Logger receives per-read diagnostics; nil uses slog.Default.
	Logger *slog.Logger
}

// Reader reads a proxy file's full contents at a moment of observed
// stability.
type Reader struct {
	path string
	opts Options
}

var _ ports.PilotSource = (*Reader)(nil)

// NewReader creates a Reader for path with the given options.
func NewReader(path string, opts Options) *Reader {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = ports.DefaultMaxAttempts
	}
	if opts.RetryPause <= 0 {
		opts.RetryPause = ports.DefaultRetryPause
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Reader{path: path, opts: opts}
}

// ReadPilot implements ports.PilotSource.
func (r *Reader) ReadPilot() ([]byte, error) {
	return r.Read()
}

// Read returns the file's bytes as observed at the last stable stat pair.
//
// The sequence is: lower privilege to the real identity when running
// effective-root, open read-only, take a blocking shared lock, reject the
// file unless it is owned by the real user with no group/world access, then
// read under the stability loop. Lock, file and privilege are released on
// every exit path.
func (r *Reader) Read() ([]byte, error) {
	uid, euid := unix.Getuid(), unix.Geteuid()
	gid := unix.Getgid()

	// Lower privilege to the real identity, only when running effective
	// root on behalf of a non-root real user. A failed transition is
	// security-critical and aborts before the file is touched.
	if euid == 0 && uid != 0 {
		guard, err := lowerPrivilege(uid, gid)
		if err != nil {
			r.opts.Logger.Warn("cannot drop privilege", "path", r.path, "error", err)
			return nil, err
		}
		defer func() {
			if rerr := guard.restore(); rerr != nil {
				r.opts.Logger.Error("cannot restore privilege", "error", rerr)
			}
		}()
	}

	f, err := os.OpenFile(r.path, os.O_RDONLY, 0)
	if err != nil {
		r.opts.Logger.Warn("cannot open proxy", "path", r.path, "error", err)
		return nil, errors.NewDomainError(errors.ErrProxyIO, fmt.Errorf("open %s: %w", r.path, err))
	}
	defer f.Close()
	fd := int(f.Fd())

	if err := fileLock(fd, r.opts.Lock, lockShared); err != nil {
		return nil, err
	}
	// Unlock before close on every path; the read is finished by then, so
	// the unlock result is uninteresting.
	defer func() { _ = fileLock(fd, r.opts.Lock, lockRelease) }()

	var st1 unix.Stat_t
	if err := unix.Fstat(fd, &st1); err != nil {
		r.opts.Logger.Warn("cannot stat proxy", "path", r.path, "error", err)
		return nil, errors.NewDomainError(errors.ErrProxyIO, fmt.Errorf("fstat %s: %w", r.path, err))
	}

	// The file must be ours and unreadable/unwritable for anyone else: a
	// proxy an attacker-controlled party could tamper with is rejected
	// outright.
	if st1.Uid != uint32(uid) || st1.Mode&0o066 != 0 {
		r.opts.Logger.Warn("unsafe permissions on proxy", "path", r.path,
			"owner_uid", st1.Uid, "mode", fmt.Sprintf("%04o", st1.Mode&0o777))
		return nil, errors.NewDomainError(errors.ErrProxyPermission,
			fmt.Errorf("%s: owner uid %d, mode %04o", r.path, st1.Uid, st1.Mode&0o777))
	}

	return r.readStable(f, fd, st1)
}

// readStable runs the bounded read/stat loop. A read is accepted only when
// size, mtime and ctime are unchanged across the read and the byte count
// matches; anything else resizes, rewinds, pauses briefly and retries.
// ctime is the strong signal here since it cannot be forged with touch.
func (r *Reader) readStable(f *os.File, fd int, st1 unix.Stat_t) ([]byte, error) {
	buf := make([]byte, st1.Size)

	for attempt := 0; attempt < r.opts.MaxAttempts; attempt++ {
		n, _ := io.ReadFull(f, buf)

		var st2 unix.Stat_t
		if err := unix.Fstat(fd, &st2); err != nil {
			return nil, errors.NewDomainError(errors.ErrProxyIO, fmt.Errorf("fstat %s: %w", r.path, err))
		}

		if st2.Size == st1.Size && st2.Mtim == st1.Mtim && st2.Ctim == st1.Ctim {
			if int64(n) != st1.Size {
				return nil, errors.NewDomainError(errors.ErrProxyIO,
					fmt.Errorf("read %d of %d bytes from %s", n, st1.Size, r.path))
			}
			return buf, nil
		}

		// The file changed under us; retry against the fresh snapshot.
		if attempt == r.opts.MaxAttempts-1 {
			break
		}
		if r.opts.OnRetry != nil {
			r.opts.OnRetry()
		}
		r.opts.Logger.Debug("proxy changed during read, retrying",
			"path", r.path, "attempt", attempt+1,
			"old_size", st1.Size, "new_size", st2.Size)

		buf = make([]byte, st2.Size)
		st1 = st2
		time.Sleep(r.opts.RetryPause)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, errors.NewDomainError(errors.ErrProxyIO, fmt.Errorf("seek %s: %w", r.path, err))
		}
	}

	r.opts.Logger.Warn("proxy kept changing during read", "path", r.path,
		"attempts", r.opts.MaxAttempts)
	return nil, errors.NewDomainError(errors.ErrProxyRetryExhausted,
		fmt.Errorf("%s changed on every one of %d attempts", r.path, r.opts.MaxAttempts))
}
