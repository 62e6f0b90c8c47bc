package apns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextDefaults(t *testing.T) {
	c := NewContext()
	assert.Equal(t, Production, c.mode)
	assert.Equal(t, LogError, c.logLevel)
	assert.Equal(t, Options(0), c.options)
}

func TestConnectWithoutCredentialsFails(t *testing.T) {
	c := NewContext()
	err := c.Connect()
	require.NotNil(t, err)
	assert.Equal(t, ErrCertificateNotSet, err.Code)
}

// TestConnectWithMissingCertificateFails covers literal scenario S6:
// a cert is configured but the file doesn't exist, which is a
// different failure than no credential being configured at all.
func TestConnectWithMissingCertificateFails(t *testing.T) {
	c := NewContext()
	require.NoError(t, c.SetCertificate("/nonexistent/cert.pem", "/nonexistent/key.pem", ""))

	err := c.Connect()
	require.NotNil(t, err)
	assert.Equal(t, ErrUnableToUseCertificate, err.Code)
}

func TestFreeIsSafeBeforeConnect(t *testing.T) {
	c := NewContext()
	assert.NotPanics(t, func() { c.Free() })
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewContext()
	assert.Nil(t, c.Close())
	assert.Nil(t, c.Close())
}

func TestLibraryInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		LibraryInit()
		LibraryInit()
	})
}
