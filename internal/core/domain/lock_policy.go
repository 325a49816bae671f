package domain

import (
	"fmt"
	"strings"

	"github.com/gridsec/pilotproxy/internal/core/errors"
)

// LockPolicy selects how the proxy file reader serializes against
// concurrent writers. Each policy is a single mechanism able to take a
// whole-file shared or exclusive advisory lock; policies are not combined.
type LockPolicy int

const (
	// LockNone performs no locking; the stat-stability retry loop is the
	// only defense against concurrent writers.
	LockNone LockPolicy = iota
	// LockFcntl takes a whole-file POSIX record lock (fcntl F_SETLKW).
	LockFcntl
	// LockFlock takes a whole-file BSD flag lock (flock).
	LockFlock
)

// ParseLockPolicy converts a configuration string into a LockPolicy.
// Recognized values are "none", "fcntl" and "flock" (case-insensitive).
func ParseLockPolicy(s string) (LockPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return LockNone, nil
	case "fcntl":
		return LockFcntl, nil
	case "flock":
		return LockFlock, nil
	default:
		return LockNone, errors.NewDomainError(errors.ErrInvalidLockPolicy,
			fmt.Errorf("unknown lock policy %q", s))
	}
}

func (p LockPolicy) String() string {
	switch p {
	case LockNone:
		return "none"
	case LockFcntl:
		return "fcntl"
	case LockFlock:
		return "flock"
	default:
		return fmt.Sprintf("LockPolicy(%d)", int(p))
	}
}

// Valid reports whether p is one of the defined policies.
func (p LockPolicy) Valid() bool {
	return p == LockNone || p == LockFcntl || p == LockFlock
}
