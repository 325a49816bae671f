package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsec/pilotproxy/internal/core/errors"
)

func TestDomainErrorError(t *testing.T) {
	t.Parallel()

	t.Run("without cause", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "PROXY_IO: I/O failure while reading pilot proxy",
			errors.ErrProxyIO.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		t.Parallel()
		err := errors.NewDomainError(errors.ErrProxyIO, fmt.Errorf("open /tmp/x: permission denied"))
		assert.Equal(t,
			"PROXY_IO: I/O failure while reading pilot proxy: open /tmp/x: permission denied",
			err.Error())
	})
}

func TestDomainErrorMatching(t *testing.T) {
	t.Parallel()

	t.Run("wrapped error matches its sentinel", func(t *testing.T) {
		t.Parallel()
		err := errors.NewDomainError(errors.ErrProxyPermission, fmt.Errorf("mode 0644"))
		assert.ErrorIs(t, err, errors.ErrProxyPermission)
		assert.NotErrorIs(t, err, errors.ErrProxyIO)
	})

	t.Run("further wrapping still matches", func(t *testing.T) {
		t.Parallel()
		inner := errors.NewDomainError(errors.ErrProxyLock, fmt.Errorf("flock: interrupted"))
		outer := fmt.Errorf("reading pilot proxy: %w", inner)
		assert.ErrorIs(t, outer, errors.ErrProxyLock)
	})

	t.Run("unwrap exposes the cause", func(t *testing.T) {
		t.Parallel()
		cause := fmt.Errorf("root cause")
		err := errors.NewDomainError(errors.ErrChainParse, cause)
		assert.ErrorIs(t, err, cause)

		var de *errors.DomainError
		require.True(t, stderrors.As(err, &de))
		assert.Equal(t, "CHAIN_PARSE", de.Code)
	})
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := &errors.ValidationError{Field: "proxy.lock", Value: "spinlock", Message: "unknown policy"}
	assert.Equal(t, "validation failed for field 'proxy.lock': unknown policy (value: spinlock)", err.Error())
}
