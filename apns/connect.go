package apns

// Connect establishes the push gateway connection for subsequent
// Send calls. It is idempotent: calling it again while already
// connected is a no-op (§4.C).
func (c *Context) Connect() *Error {
	if c.tlsConn != nil {
		return nil
	}

	cert, buildErr := c.creds.buildTLSCertificate()
	if buildErr != nil {
		return buildErr
	}

	tlsConn, dialErr := dialGateway(gatewayFor(c.mode), cert)
	if dialErr != nil {
		return dialErr
	}

	c.conn = tlsConn
	c.tlsConn = tlsConn
	c.nextIndex = 0

	if peer := tlsConn.ConnectionState(); len(peer.PeerCertificates) > 0 {
		leaf := peer.PeerCertificates[0]
		c.log(LogInfo, "connect", "gateway handshake complete", map[string]interface{}{
			"mode":   c.mode.String(),
			"subject": leaf.Subject.String(),
			"issuer":  leaf.Issuer.String(),
		})
	}

	return nil
}

// Close releases the push gateway connection. It is idempotent.
func (c *Context) Close() *Error {
	c.closeConn()
	return nil
}

// FeedbackConnect establishes the feedback service connection for a
// subsequent Feedback call. It is idempotent.
func (c *Context) FeedbackConnect() *Error {
	if c.feedbackTLS != nil {
		return nil
	}

	cert, buildErr := c.creds.buildTLSCertificate()
	if buildErr != nil {
		return buildErr
	}

	tlsConn, dialErr := dialGateway(feedbackGatewayFor(c.mode), cert)
	if dialErr != nil {
		return dialErr
	}

	c.feedbackConn = tlsConn
	c.feedbackTLS = tlsConn
	return nil
}
