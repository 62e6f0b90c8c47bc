package apns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTLSCertificateNoCredentialConfigured(t *testing.T) {
	c := &credentials{}
	_, err := c.buildTLSCertificate()
	require.NotNil(t, err)
	assert.Equal(t, ErrCertificateNotSet, err.Code)
}

func TestBuildTLSCertificateMissingPEMCertFile(t *testing.T) {
	c := &credentials{
		kind:     credentialPEM,
		certPath: "/nonexistent/cert.pem",
		keyPath:  "/nonexistent/key.pem",
	}
	_, err := c.buildTLSCertificate()
	require.NotNil(t, err)
	assert.Equal(t, ErrUnableToUseCertificate, err.Code)
}

func TestBuildTLSCertificateMissingPKCS12File(t *testing.T) {
	c := &credentials{
		kind:       credentialPKCS12,
		pkcs12Path: "/nonexistent/bundle.p12",
	}
	_, err := c.buildTLSCertificate()
	require.NotNil(t, err)
	assert.Equal(t, ErrUnableToUsePKCS12, err.Code)
}
