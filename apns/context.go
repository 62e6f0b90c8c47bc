package apns

import (
	"crypto/tls"
	"net"
	"sync"

	"github.com/relaypush/legacyapns/internal/sigpipe"
)

var libraryInitOnce sync.Once

// LibraryInit performs process-wide setup (currently SIGPIPE
// suppression on platforms that raise it on a write to a
// half-closed socket). It is safe, and a no-op, to call more than
// once or concurrently (§8 property 5).
func LibraryInit() {
	libraryInitOnce.Do(func() {
		sigpipe.Ignore()
	})
}

// LibraryFree exists for symmetry with LibraryInit; the library
// holds no process-wide resources that need releasing.
func LibraryFree() {}

// Context is the unit of configuration and connection state for one
// APNs identity. A Context is not safe for concurrent use: Send,
// Connect, Close, Feedback and FeedbackConnect must not be called
// concurrently on the same Context (§3 Context invariants).
type Context struct {
	mode     Mode
	creds    credentials
	options  Options
	logLevel LogLevel

	logCallback          LogFunc
	invalidTokenCallback InvalidTokenFunc

	conn    net.Conn
	tlsConn *tls.Conn

	feedbackConn net.Conn
	feedbackTLS  *tls.Conn

	// nextIndex is the resume cursor the delivery loop restarts a
	// batch from after a reconnect (§4.E step 6).
	nextIndex int

	// reconnectHook, when set, replaces the real Connect call Send
	// makes after a resumable error. Tests use it to exercise the
	// reconnect-mid-batch path against a second mock connection
	// without a real TLS handshake.
	reconnectHook func() *Error
}

// NewContext allocates a Context with the documented defaults:
// Production mode, LogError level, no behavior options set.
func NewContext() *Context {
	return &Context{
		mode:     Production,
		logLevel: LogError,
	}
}

// Free releases any held connections. It is safe to call on an
// already-closed or never-connected Context.
func (c *Context) Free() {
	c.closeConn()
	c.closeFeedbackConn()
}

// SetCertificate configures a PEM certificate and private key pair,
// replacing any previously configured credential (PEM or PKCS#12).
// keyPassword is only consulted if the key PEM block is encrypted;
// pass "" for an unencrypted key.
func (c *Context) SetCertificate(certPath, keyPath, keyPassword string) error {
	c.creds = credentials{
		kind:        credentialPEM,
		certPath:    certPath,
		keyPath:     keyPath,
		keyPassword: keyPassword,
	}
	return nil
}

// SetPKCS12 configures a PKCS#12 bundle as the credential, replacing
// any previously configured credential.
func (c *Context) SetPKCS12(path, password string) error {
	c.creds = credentials{
		kind:           credentialPKCS12,
		pkcs12Path:     path,
		pkcs12Password: password,
	}
	return nil
}

// SetMode selects Production or Sandbox gateways for all subsequent
// Connect/FeedbackConnect calls. It has no effect on an already
// established connection.
func (c *Context) SetMode(mode Mode) {
	c.mode = mode
}

// SetBehavior replaces the Context's behavior flags (ReconnectOnError,
// LogToStderr).
func (c *Context) SetBehavior(opts Options) {
	c.options = opts
}

// SetLogLevel replaces the bitset of levels this Context logs at.
func (c *Context) SetLogLevel(level LogLevel) {
	c.logLevel = level
}

// SetLogCallback installs fn as the sink for every logged message,
// superseding the default stderr sink even if LogToStderr is set.
// Passing nil reverts to the default sink.
func (c *Context) SetLogCallback(fn LogFunc) {
	c.logCallback = fn
}

// SetInvalidTokenCallback installs fn to be invoked once per token
// Send determines is invalid.
func (c *Context) SetInvalidTokenCallback(fn InvalidTokenFunc) {
	c.invalidTokenCallback = fn
}

// doReconnect is the indirection point send.go uses to reconnect a
// batch after a resumable error; it calls the real Connect unless a
// test has installed reconnectHook.
func (c *Context) doReconnect() *Error {
	if c.reconnectHook != nil {
		return c.reconnectHook()
	}
	return c.Connect()
}

func (c *Context) closeConn() {
	if c.tlsConn != nil {
		_ = c.tlsConn.Close()
		c.tlsConn = nil
	}
	c.conn = nil
}

func (c *Context) closeFeedbackConn() {
	if c.feedbackTLS != nil {
		_ = c.feedbackTLS.Close()
		c.feedbackTLS = nil
	}
	c.feedbackConn = nil
}
