package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsec/pilotproxy/internal/core/domain"
	"github.com/gridsec/pilotproxy/internal/testing/proxytest"
)

func TestInspectProxyInfo(t *testing.T) {
	t.Parallel()

	t.Run("extension absent", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")

		info := domain.InspectProxyInfo(eec.Cert)
		assert.Equal(t, domain.ExtensionAbsent, info.State)
		assert.Nil(t, info.Err)
	})

	t.Run("unlimited proxy", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")
		proxy := proxytest.NewProxy(t, eec, false)

		info := domain.InspectProxyInfo(proxy.Cert)
		require.Equal(t, domain.ExtensionFound, info.State)
		assert.True(t, info.PolicyLanguage.Equal(proxytest.OIDInheritAll))
	})

	t.Run("limited proxy", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")
		proxy := proxytest.NewProxy(t, eec, true)

		info := domain.InspectProxyInfo(proxy.Cert)
		require.Equal(t, domain.ExtensionFound, info.State)
		assert.True(t, info.PolicyLanguage.Equal(domain.OIDLimitedProxy))
	})

	t.Run("malformed extension", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")
		proxy := proxytest.NewMalformedProxy(t, eec)

		info := domain.InspectProxyInfo(proxy.Cert)
		assert.Equal(t, domain.ExtensionMalformed, info.State)
		assert.Error(t, info.Err)
	})

	t.Run("inspection is idempotent", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")
		proxy := proxytest.NewProxy(t, eec, true)

		first := domain.InspectProxyInfo(proxy.Cert)
		second := domain.InspectProxyInfo(proxy.Cert)
		assert.Equal(t, first.State, second.State)
		assert.True(t, first.PolicyLanguage.Equal(second.PolicyLanguage))
	})
}

func TestIsRFCProxy(t *testing.T) {
	t.Parallel()

	t.Run("proxy with extension", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")
		proxy := proxytest.NewProxy(t, eec, false)

		assert.True(t, domain.IsRFCProxy(proxy.Cert))
	})

	t.Run("end entity without extension", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")

		assert.False(t, domain.IsRFCProxy(eec.Cert))
	})

	t.Run("legacy child without extension", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")
		legacy := proxytest.NewPlainChild(t, eec)

		assert.False(t, domain.IsRFCProxy(legacy.Cert))
	})

	t.Run("nil certificate", func(t *testing.T) {
		t.Parallel()
		assert.False(t, domain.IsRFCProxy(nil))
	})
}

func TestIsLimitedProxy(t *testing.T) {
	t.Parallel()

	t.Run("limited policy language", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")
		proxy := proxytest.NewProxy(t, eec, true)

		assert.True(t, domain.IsLimitedProxy(proxy.Cert))
	})

	t.Run("inherit-all policy language", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")
		proxy := proxytest.NewProxy(t, eec, false)

		assert.False(t, domain.IsLimitedProxy(proxy.Cert))
	})

	t.Run("no extension classifies as not limited", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")

		assert.False(t, domain.IsLimitedProxy(eec.Cert))
	})

	t.Run("malformed extension classifies as not limited", func(t *testing.T) {
		t.Parallel()
		eec := proxytest.NewEEC(t, "alice")
		proxy := proxytest.NewMalformedProxy(t, eec)

		assert.False(t, domain.IsLimitedProxy(proxy.Cert))
	})

	t.Run("nil certificate", func(t *testing.T) {
		t.Parallel()
		assert.False(t, domain.IsLimitedProxy(nil))
	})
}
