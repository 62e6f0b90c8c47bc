package apns

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/miekg/dns"
)

const (
	dialTimeout      = 10 * time.Second
	tlsHandshakeTime = 10 * time.Second
)

// resolveHost returns the IPv4 addresses for host, preferring a
// direct A-record query against the system resolver's nameserver
// (miekg/dns gives this client its own resolution path independent
// of cgo's getaddrinfo, which matters in stripped-down containers
// that ship without /etc/resolv.conf wired up correctly) and
// falling back to net.DefaultResolver when that query can't even be
// dispatched (no resolv.conf, no reachable nameserver) or returns no
// A records.
func resolveHost(host string) ([]string, error) {
	addrs, err := resolveViaDNSClient(host)
	if err == nil && len(addrs) > 0 {
		return addrs, nil
	}

	ips, err := net.DefaultResolver.LookupHost(context.Background(), host)
	if err != nil {
		return nil, err
	}
	return ips, nil
}

func resolveViaDNSClient(host string) ([]string, error) {
	config, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(config.Servers) == 0 {
		return nil, err
	}

	client := new(dns.Client)
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)

	server := net.JoinHostPort(config.Servers[0], config.Port)
	resp, _, err := client.Exchange(msg, server)
	if err != nil {
		return nil, err
	}

	var addrs []string
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}
	return addrs, nil
}

// dialGateway establishes and handshakes a TLS connection to gw
// (each resolved address of gw.host is dialed on gw.port in turn, and
// gw.host is the TLS ServerName) using cert as the client credential. It mirrors the
// teacher's createTLSClient: dial with a timeout, build the TLS
// config from the loaded certificate, handshake with its own
// deadline, then clear the deadline so it doesn't leak into later
// application reads/writes.
func dialGateway(gw gatewayAddr, cert tls.Certificate) (*tls.Conn, *Error) {
	addrs, err := resolveHost(gw.host)
	if err != nil || len(addrs) == 0 {
		addrs = []string{gw.host}
	}

	// lastCode tracks which stage the last attempt failed at, so a
	// pure dial failure (no gateway reachable) and a handshake
	// failure (reachable but TLS rejected) surface as the two
	// distinct codes §4.C requires, instead of collapsing both into
	// the SSL code.
	lastCode := ErrCouldNotInitializeConnection
	var lastErr error

	for _, addr := range addrs {
		tcpConn, dialErr := net.DialTimeout("tcp", net.JoinHostPort(addr, gw.port), dialTimeout)
		if dialErr != nil {
			lastCode = ErrCouldNotInitializeConnection
			lastErr = dialErr
			continue
		}

		tlsConf := &tls.Config{
			Certificates: []tls.Certificate{cert},
			ServerName:   gw.host,
			MinVersion:   tls.VersionTLS12,
		}

		tlsConn := tls.Client(tcpConn, tlsConf)
		if deadlineErr := tlsConn.SetDeadline(time.Now().Add(tlsHandshakeTime)); deadlineErr != nil {
			_ = tcpConn.Close()
			lastCode = ErrCouldNotInitializeSSLConnection
			lastErr = deadlineErr
			continue
		}
		if hsErr := tlsConn.Handshake(); hsErr != nil {
			_ = tcpConn.Close()
			lastCode = ErrCouldNotInitializeSSLConnection
			lastErr = hsErr
			continue
		}
		_ = tlsConn.SetDeadline(time.Time{})

		return tlsConn, nil
	}

	return nil, wrapError(lastCode, lastErr)
}
