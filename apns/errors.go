package apns

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode is the closed enumeration of errors this client can
// surface, spanning configuration, lifecycle, transport, and
// Apple-protocol failures (see §7 of the design).
type ErrorCode int

const (
	// Configuration
	ErrCertificateNotSet ErrorCode = iota + 1
	ErrPrivateKeyNotSet
	ErrUnableToUseCertificate
	ErrUnableToUsePrivateKey
	ErrUnableToUsePKCS12

	// Lifecycle
	ErrFailedInit
	ErrNotConnected
	ErrNotConnectedFeedback

	// Transport
	ErrCouldNotInitializeConnection
	ErrCouldNotInitializeSSLConnection
	ErrConnectionClosed
	ErrConnectionTimedOut
	ErrNetworkUnreachable
	ErrSSLWriteFailed
	ErrSSLReadFailed

	// Protocol (from Apple)
	ErrProcessingError
	ErrServiceShutdown
	ErrTokenInvalid
	ErrInvalidPayloadSize

	// Input
	ErrTokenTooMany
	ErrStringContainsNonUTF8Characters
	ErrUnknown
)

var errorStrings = map[ErrorCode]string{
	ErrCertificateNotSet:               "certificate is not set",
	ErrPrivateKeyNotSet:                "private key is not set",
	ErrUnableToUseCertificate:          "unable to use specified certificate",
	ErrUnableToUsePrivateKey:           "unable to use specified private key",
	ErrUnableToUsePKCS12:               "unable to use specified PKCS#12 bundle",
	ErrFailedInit:                      "failed to initialize library",
	ErrNotConnected:                    "not connected",
	ErrNotConnectedFeedback:            "not connected to feedback service",
	ErrCouldNotInitializeConnection:    "could not initialize connection",
	ErrCouldNotInitializeSSLConnection: "could not initialize SSL connection",
	ErrConnectionClosed:                "connection closed",
	ErrConnectionTimedOut:              "connection timed out",
	ErrNetworkUnreachable:              "network unreachable",
	ErrSSLWriteFailed:                  "SSL write failed",
	ErrSSLReadFailed:                   "SSL read failed",
	ErrProcessingError:                 "processing error",
	ErrServiceShutdown:                 "service shutdown",
	ErrTokenInvalid:                    "invalid token",
	ErrInvalidPayloadSize:              "invalid payload size",
	ErrTokenTooMany:                    "too many tokens",
	ErrStringContainsNonUTF8Characters: "string contains non-UTF8 characters",
	ErrUnknown:                         "unknown error",
}

// String implements error_string: a human-readable description for
// any ErrorCode, falling back to a generic message carrying the raw
// numeric code for anything outside the closed enumeration.
func (c ErrorCode) String() string {
	if s, ok := errorStrings[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown error code %d", int(c))
}

// Error is the result type every public operation returns instead of
// a bare Go error (see §9 "Error channel" design note). Code is
// always safe to switch on; Cause, when present, is the underlying
// transport/parse failure that produced this classification, wrapped
// with github.com/pkg/errors so its stack/context survives for logs.
type Error struct {
	Code  ErrorCode
	Cause error
}

func newError(code ErrorCode) *Error {
	return &Error{Code: code}
}

func wrapError(code ErrorCode, cause error) *Error {
	if cause == nil {
		return newError(code)
	}
	return &Error{Code: code, Cause: errors.WithStack(cause)}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("apns: %s: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("apns: %s", e.Code)
}

// Unwrap lets callers use errors.Is/errors.As against the wrapped
// cause while still switching on Code directly.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// appleStatus is the raw single-byte status Apple puts in an error
// frame; it is distinct from ErrorCode, which is this client's own
// taxonomy.
type appleStatus uint8

const (
	appleStatusNoErrors           appleStatus = 0
	appleStatusProcessingError    appleStatus = 1
	appleStatusMissingDeviceToken appleStatus = 2
	appleStatusMissingTopic       appleStatus = 3
	appleStatusMissingPayload     appleStatus = 4
	appleStatusInvalidTokenSize   appleStatus = 5
	appleStatusInvalidTopicSize   appleStatus = 6
	appleStatusInvalidPayloadSize appleStatus = 7
	appleStatusInvalidToken       appleStatus = 8
	appleStatusShutdown           appleStatus = 10
)

// errorFrameSize is the fixed size of the APNs error frame: command
// (1) + status (1) + notification id (4, big-endian).
const errorFrameSize = 6

// errorFrameCommand is the only command byte Apple is documented to
// send back on the error channel.
const errorFrameCommand = 8

// classifyErrorFrame parses a raw 6-byte APNs error frame and maps
// the embedded Apple status to this client's ErrorCode taxonomy
// (§4.D). The returned notificationID names the batch index of the
// offending token; it is only meaningful when code is
// ErrTokenInvalid, per the protocol, though it is always populated
// for undocumented-cmd frames retain diagnostic value in the logs.
//
// If the command byte isn't 8, the frame is something undocumented;
// this returns ErrUnknown rather than failing the parse outright (see
// §9 "apple_error_code with cmd != 0x08").
func classifyErrorFrame(frame []byte) (code ErrorCode, notificationID uint32, rawStatus uint8) {
	if len(frame) != errorFrameSize {
		return ErrUnknown, 0, 0
	}

	cmd := frame[0]
	rawStatus = frame[1]
	notificationID = binary.BigEndian.Uint32(frame[2:6])

	if cmd != errorFrameCommand {
		return ErrUnknown, notificationID, rawStatus
	}

	switch appleStatus(rawStatus) {
	case appleStatusProcessingError:
		return ErrProcessingError, notificationID, rawStatus
	case appleStatusInvalidPayloadSize:
		return ErrInvalidPayloadSize, notificationID, rawStatus
	case appleStatusInvalidToken, appleStatusInvalidTokenSize:
		return ErrTokenInvalid, notificationID, rawStatus
	case appleStatusShutdown:
		return ErrServiceShutdown, notificationID, rawStatus
	default:
		return ErrUnknown, notificationID, rawStatus
	}
}
