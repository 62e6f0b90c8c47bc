package apns

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"
)

const (
	// feedbackIdleTimeout bounds how long Feedback waits for the next
	// record before treating the stream as drained (§4.F).
	feedbackIdleTimeout = 3 * time.Second

	feedbackTimestampSize = 4
	feedbackTokenLenSize  = 2
)

// Feedback reads and hex-encodes at most one 38-byte record from the
// feedback service (4-byte timestamp, skipped; 2-byte big-endian token
// length; token). A caller wanting every queued token calls Feedback
// in a loop until it returns an empty, non-error slice, at which point
// the stream has gone idle for feedbackIdleTimeout and the connection
// has been closed. It requires a prior successful FeedbackConnect.
func (c *Context) Feedback() ([]string, *Error) {
	if c.feedbackConn == nil {
		return nil, newError(ErrNotConnectedFeedback)
	}

	header := make([]byte, feedbackTimestampSize+feedbackTokenLenSize)
	if err := read(c.feedbackConn, header, feedbackIdleTimeout); err != nil {
		if err.Code == ErrConnectionClosed || err.Code == ErrConnectionTimedOut {
			c.closeFeedbackConn()
			return nil, nil
		}
		return nil, err
	}

	tokenLen := binary.BigEndian.Uint16(header[feedbackTimestampSize:])
	if tokenLen == 0 || tokenLen > 255 {
		return nil, wrapError(ErrSSLReadFailed, errors.New("implausible feedback token length"))
	}

	tokenBuf := make([]byte, tokenLen)
	if err := read(c.feedbackConn, tokenBuf, feedbackIdleTimeout); err != nil {
		return nil, err
	}

	return []string{hex.EncodeToString(tokenBuf)}, nil
}
