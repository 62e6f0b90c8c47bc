package apns

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/relaypush/legacyapns/message"
	"github.com/relaypush/legacyapns/token"
)

const (
	// maxPayloadSize is the default APNs enhanced-notification payload
	// cap; it matches the teacher's APNSConfig.MaxPayloadSize default.
	maxPayloadSize = 2048

	// multiplexWait is how long one send pass waits, per written
	// frame, for an async error frame to arrive before writing the
	// next one (§4.E.1).
	multiplexWait = 10 * time.Second

	// drainWait is how long the final pass waits after the whole
	// batch has been written, to catch an error frame for the very
	// last token sent (§4.E.1).
	drainWait = 1 * time.Second
)

// SendResult reports the tokens Send determined were invalid, in the
// order they were rejected, whether as malformed hex or by Apple. A
// Send that rejected no tokens returns a SendResult with a nil slice.
type SendResult struct {
	InvalidTokens []string
}

// Send delivers payload to every token in tokens over the connection
// established by Connect. Malformed tokens are skipped and reported
// via InvalidTokens. When ReconnectOnError is set, an Apple-rejected
// token, a service shutdown or a closed connection makes Send
// reconnect and resume the batch just after the index that failed;
// without it, Send returns that error (§4.E). A token Apple rejects as
// the very last one in the batch still ends the batch in success:
// there is nothing left to resume, so it is reported via InvalidTokens
// rather than as a *Error (§4.E step 6, literal scenario S3).
func (c *Context) Send(payload *message.Payload, tokens []string) (*SendResult, *Error) {
	if c.conn == nil {
		return nil, newError(ErrNotConnected)
	}

	batchID := uuid.New().String()
	result := &SendResult{}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	c.nextIndex = 0
	for c.nextIndex < len(tokens) {
		sentThrough, sendErr := c.sendPass(payload, tokens, c.nextIndex, batchID, result)
		c.nextIndex = sentThrough

		if sendErr == nil {
			break
		}

		if sendErr.Code == ErrTokenInvalid && c.nextIndex >= len(tokens) {
			break
		}

		if !c.options.has(ReconnectOnError) || !isResumable(sendErr.Code) {
			return result, sendErr
		}

		// An invalid-token pass already stopped one past the rejected
		// token; any other resumable error stopped at the index that
		// failed, and the batch resumes just after it (§4.E step 6).
		if sendErr.Code != ErrTokenInvalid {
			c.nextIndex = sentThrough + 1
		}

		c.log(LogError, "send", "reconnecting after resumable send error", map[string]interface{}{
			"batch": batchID,
			"code":  sendErr.Code.String(),
			"index": c.nextIndex,
		})

		c.closeConn()
		time.Sleep(bo.NextBackOff())

		if connErr := c.doReconnect(); connErr != nil {
			return result, connErr
		}
		bo.Reset()
	}

	return result, nil
}

// isResumable reports whether the delivery loop should reconnect and
// continue a batch after this error, versus surfacing it immediately
// (§4.E step 6).
func isResumable(code ErrorCode) bool {
	switch code {
	case ErrConnectionClosed, ErrServiceShutdown, ErrTokenInvalid:
		return true
	default:
		return false
	}
}

// sendPass writes every token starting at startIndex, watching for an
// async error frame after each write, and returns the index the pass
// stopped at (for an Apple-rejected token, the index just after it)
// along with any error that ended the pass early. The payload is
// encoded once per pass and the frame's id and token are rewritten in
// place for each token. On a clean finish it performs a final
// drainWait read to catch an error frame for the very last token.
func (c *Context) sendPass(payload *message.Payload, tokens []string, startIndex int, batchID string, result *SendResult) (int, *Error) {
	errFrame := make([]byte, errorFrameSize)

	msg, encodeErr := message.Encode(payload, maxPayloadSize)
	if encodeErr != nil {
		if errors.Is(encodeErr, message.ErrNonUTF8Alert) {
			return startIndex, wrapError(ErrStringContainsNonUTF8Characters, encodeErr)
		}
		return startIndex, wrapError(ErrInvalidPayloadSize, encodeErr)
	}

	for i := startIndex; i < len(tokens); i++ {
		raw, decodeErr := token.ToBinary(tokens[i])
		if decodeErr != nil {
			result.InvalidTokens = append(result.InvalidTokens, tokens[i])
			c.notifyInvalidToken(tokens[i], i)
			continue
		}

		// The notification id on the wire is the token's zero-based
		// index in this batch (§6 wire contract, literal scenario S1).
		msg.SetID(uint32(i))
		if setErr := msg.SetToken(raw); setErr != nil {
			result.InvalidTokens = append(result.InvalidTokens, tokens[i])
			c.notifyInvalidToken(tokens[i], i)
			continue
		}

		if writeErr := write(c.conn, msg.Bytes()); writeErr != nil {
			return i, writeErr
		}

		if readErr := read(c.conn, errFrame, multiplexWait); readErr != nil {
			if readErr.Code == ErrConnectionTimedOut {
				continue
			}
			return i, readErr
		}

		if done, next, handleErr := c.handleErrorFrame(errFrame, i, tokens, result); done {
			return next, handleErr
		}
	}

	if readErr := read(c.conn, errFrame, drainWait); readErr != nil {
		if readErr.Code == ErrConnectionTimedOut {
			return len(tokens), nil
		}
		return len(tokens), readErr
	}

	if done, next, handleErr := c.handleErrorFrame(errFrame, len(tokens)-1, tokens, result); done {
		return next, handleErr
	}
	return len(tokens), nil
}

// handleErrorFrame classifies a received error frame (§4.D); every
// frame ends the pass. The frame's notificationID is the batch index it
// refers to (matching the id Send puts on the wire); fallbackIndex is
// used only for the undocumented-command case, where notificationID
// can't be trusted to mean the same thing. For an invalid-token
// classification the rejected token is recorded and the returned index
// is the one after it; for any other classification the returned index
// is the one the frame names. Send then decides whether to reconnect
// and resume (§4.E step 6).
func (c *Context) handleErrorFrame(frame []byte, fallbackIndex int, tokens []string, result *SendResult) (done bool, nextIndex int, sendErr *Error) {
	code, notificationID, rawStatus := classifyErrorFrame(frame)

	index := int(notificationID)
	if frame[0] != errorFrameCommand {
		index = fallbackIndex
	}

	c.log(LogDebug, "send", "received error frame", map[string]interface{}{
		"code":   code.String(),
		"status": rawStatus,
		"id":     notificationID,
		"index":  index,
	})

	if code == ErrTokenInvalid {
		if index >= 0 && index < len(tokens) {
			result.InvalidTokens = append(result.InvalidTokens, tokens[index])
			c.notifyInvalidToken(tokens[index], index)
		}
		return true, index + 1, wrapError(ErrTokenInvalid, nil)
	}

	return true, index, wrapError(code, nil)
}

func (c *Context) notifyInvalidToken(hexToken string, index int) {
	if c.invalidTokenCallback != nil {
		c.invalidTokenCallback(hexToken, index)
	}
}
