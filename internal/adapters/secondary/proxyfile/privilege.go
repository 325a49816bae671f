package proxyfile

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/gridsec/pilotproxy/internal/core/errors"
)

// privilegeGuard captures the effective identity at acquisition and
// restores it on release. Using a guard keeps every exit path of the
// reader, including failures, on the restore path.
type privilegeGuard struct {
	euid    int
	egid    int
	lowered bool
}

// lowerPrivilege temporarily adopts the given unprivileged uid/gid as the
// effective identity. When lowering the group succeeds but lowering the
// user fails, the group is restored before the error returns so a failure
// never leaves a half-lowered identity.
func lowerPrivilege(uid, gid int) (*privilegeGuard, error) {
	g := &privilegeGuard{euid: unix.Geteuid(), egid: unix.Getegid()}

	// gid may legitimately be 0 (root group); only skip a no-op change.
	if gid != g.egid {
		if err := syscall.Setegid(gid); err != nil {
			return nil, errors.NewDomainError(errors.ErrProxyPrivilege,
				fmt.Errorf("setegid(%d): %w", gid, err))
		}
	}

	// uid should not be 0 here; a no-op change is skipped.
	if uid != 0 && uid != g.euid {
		if err := syscall.Seteuid(uid); err != nil {
			// Damage control: the group change already happened, undo it
			// before failing.
			_ = syscall.Setegid(g.egid)
			return nil, errors.NewDomainError(errors.ErrProxyPrivilege,
				fmt.Errorf("seteuid(%d): %w", uid, err))
		}
	}

	g.lowered = true
	return g, nil
}

// restore reinstates the identity captured at acquisition. Safe to call on
// every exit path; errors are reported but the guard always attempts the
// full restore sequence.
func (g *privilegeGuard) restore() error {
	if g == nil || !g.lowered {
		return nil
	}
	g.lowered = false

	// Restoring an effective-root identity must raise the uid first or the
	// setegid call has no privilege to succeed.
	if g.euid == 0 {
		if err := syscall.Seteuid(0); err != nil {
			return fmt.Errorf("seteuid(0): %w", err)
		}
		if err := syscall.Setegid(g.egid); err != nil {
			return fmt.Errorf("setegid(%d): %w", g.egid, err)
		}
		return nil
	}

	// Real root running with a non-root effective uid: go through uid 0 so
	// the setegid is permitted, then drop back.
	if unix.Getuid() == 0 {
		if err := syscall.Seteuid(0); err != nil {
			return fmt.Errorf("seteuid(0): %w", err)
		}
		if err := syscall.Setegid(g.egid); err != nil {
			return fmt.Errorf("setegid(%d): %w", g.egid, err)
		}
		if err := syscall.Seteuid(g.euid); err != nil {
			return fmt.Errorf("seteuid(%d): %w", g.euid, err)
		}
		return nil
	}

	return fmt.Errorf("cannot restore privilege: neither effective nor real uid is root")
}
