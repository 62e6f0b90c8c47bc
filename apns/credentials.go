package apns

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"

	"golang.org/x/crypto/pkcs12"
)

var (
	errNoPEMBlock             = errors.New("no PEM block found")
	errEncryptedKeyNoPassword = errors.New("private key is encrypted but no password was supplied")
	errKeyCertMismatch        = errors.New("private key does not match certificate's public key")
	errUnsupportedKeyType     = errors.New("unsupported private key type")
)

// parsePrivateKeyDER tries the DER encodings x509 key material from
// old APNs certs is actually shipped in, in the order openssl would
// try them: PKCS#1 RSA first, then PKCS#8, then SEC1 EC.
func parsePrivateKeyDER(der []byte) (interface{}, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, errUnsupportedKeyType
}

func publicKeysEqual(cert *x509.Certificate, key interface{}) bool {
	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		priv, ok := key.(*rsa.PrivateKey)
		return ok && pub.Equal(&priv.PublicKey)
	case *ecdsa.PublicKey:
		priv, ok := key.(*ecdsa.PrivateKey)
		return ok && pub.Equal(&priv.PublicKey)
	default:
		return false
	}
}

type credentialKind int

const (
	credentialNone credentialKind = iota
	credentialPEM
	credentialPKCS12
)

// credentials holds exactly one of the two supported credential
// variants (§3 Context invariants: "Either both transport fields are
// present, or both are absent" applies symmetrically to credentials
// being exactly one shape at a time).
type credentials struct {
	kind credentialKind

	certPath    string
	keyPath     string
	keyPassword string

	pkcs12Path     string
	pkcs12Password string
}

// buildTLSCertificate loads the credential variant into a
// tls.Certificate, mapping every failure to the §4.B error taxonomy.
// The Context must be released by the caller on every failure path;
// this function itself holds no resources to release.
func (c *credentials) buildTLSCertificate() (tls.Certificate, *Error) {
	switch c.kind {
	case credentialPKCS12:
		return c.buildFromPKCS12()
	case credentialPEM:
		return c.buildFromPEM()
	default:
		return tls.Certificate{}, newError(ErrCertificateNotSet)
	}
}

func (c *credentials) buildFromPKCS12() (tls.Certificate, *Error) {
	data, err := os.ReadFile(c.pkcs12Path)
	if err != nil {
		return tls.Certificate{}, wrapError(ErrUnableToUsePKCS12, err)
	}

	privateKey, cert, err := pkcs12.Decode(data, c.pkcs12Password)
	if err != nil {
		return tls.Certificate{}, wrapError(ErrUnableToUsePKCS12, err)
	}

	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  privateKey,
		Leaf:        cert,
	}, nil
}

func (c *credentials) buildFromPEM() (tls.Certificate, *Error) {
	if c.certPath == "" {
		return tls.Certificate{}, newError(ErrCertificateNotSet)
	}
	if c.keyPath == "" {
		return tls.Certificate{}, newError(ErrPrivateKeyNotSet)
	}

	certPEM, err := os.ReadFile(c.certPath)
	if err != nil {
		return tls.Certificate{}, wrapError(ErrUnableToUseCertificate, err)
	}

	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return tls.Certificate{}, wrapError(ErrUnableToUseCertificate, errNoPEMBlock)
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return tls.Certificate{}, wrapError(ErrUnableToUseCertificate, err)
	}

	keyPEM, err := os.ReadFile(c.keyPath)
	if err != nil {
		return tls.Certificate{}, wrapError(ErrUnableToUsePrivateKey, err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return tls.Certificate{}, wrapError(ErrUnableToUsePrivateKey, errNoPEMBlock)
	}

	keyDER := keyBlock.Bytes
	//lint:ignore SA1019 legacy PKCS#1-encrypted PEM keys are still
	// issued alongside old APNs certs; x509.IsEncryptedPEMBlock/
	// DecryptPEMBlock is the only stdlib path for them and no
	// library in the retrieval pack covers encrypted PEM (only
	// PKCS#12, handled separately above).
	if x509.IsEncryptedPEMBlock(keyBlock) {
		if c.keyPassword == "" {
			return tls.Certificate{}, wrapError(ErrUnableToUsePrivateKey, errEncryptedKeyNoPassword)
		}
		decrypted, err := x509.DecryptPEMBlock(keyBlock, []byte(c.keyPassword))
		if err != nil {
			return tls.Certificate{}, wrapError(ErrUnableToUsePrivateKey, err)
		}
		keyDER = decrypted
	}

	key, err := parsePrivateKeyDER(keyDER)
	if err != nil {
		return tls.Certificate{}, wrapError(ErrUnableToUsePrivateKey, err)
	}

	if !publicKeysEqual(cert, key) {
		return tls.Certificate{}, wrapError(ErrUnableToUsePrivateKey, errKeyCertMismatch)
	}

	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}, nil
}
