package proxyfile

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"

	"github.com/gridsec/pilotproxy/internal/core/domain"
	"github.com/gridsec/pilotproxy/internal/core/errors"
)

// lockAction selects what fileLock does with the descriptor.
type lockAction int

const (
	lockShared lockAction = iota
	lockExclusive
	lockRelease
)

// fileLock applies action to fd using the mechanism selected by policy.
// Locks are whole-file and advisory: shared for reading, exclusive for
// writing, blocking until granted. LockNone does nothing.
func fileLock(fd int, policy domain.LockPolicy, action lockAction) error {
	switch policy {
	case domain.LockNone:
		return nil

	case domain.LockFlock:
		var how int
		switch action {
		case lockShared:
			how = unix.LOCK_SH
		case lockExclusive:
			how = unix.LOCK_EX
		case lockRelease:
			how = unix.LOCK_UN
		}
		if err := unix.Flock(fd, how); err != nil {
			return errors.NewDomainError(errors.ErrProxyLock, fmt.Errorf("flock: %w", err))
		}
		return nil

	case domain.LockFcntl:
		var typ int16
		switch action {
		case lockShared:
			typ = unix.F_RDLCK
		case lockExclusive:
			typ = unix.F_WRLCK
		case lockRelease:
			typ = unix.F_UNLCK
		}
		lk := unix.Flock_t{
			Type:   typ,
			Whence: io.SeekStart,
			Start:  0,
			Len:    0, // whole file
		}
		if err := unix.FcntlFlock(uintptr(fd), unix.F_SETLKW, &lk); err != nil {
			return errors.NewDomainError(errors.ErrProxyLock, fmt.Errorf("fcntl F_SETLKW: %w", err))
		}
		return nil

	default:
		return errors.NewDomainError(errors.ErrInvalidLockPolicy,
			fmt.Errorf("lock policy %v", policy))
	}
}
