package apns

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func frameWith(status appleStatus, id uint32) []byte {
	frame := make([]byte, errorFrameSize)
	frame[0] = errorFrameCommand
	frame[1] = byte(status)
	binary.BigEndian.PutUint32(frame[2:], id)
	return frame
}

func TestClassifyErrorFrameMapsKnownStatuses(t *testing.T) {
	cases := []struct {
		status appleStatus
		want   ErrorCode
	}{
		{appleStatusProcessingError, ErrProcessingError},
		{appleStatusInvalidPayloadSize, ErrInvalidPayloadSize},
		{appleStatusInvalidToken, ErrTokenInvalid},
		{appleStatusInvalidTokenSize, ErrTokenInvalid},
		{appleStatusShutdown, ErrServiceShutdown},
		{appleStatusMissingTopic, ErrUnknown},
	}

	for _, tc := range cases {
		code, id, raw := classifyErrorFrame(frameWith(tc.status, 7))
		assert.Equal(t, tc.want, code)
		assert.Equal(t, uint32(7), id)
		assert.Equal(t, byte(tc.status), raw)
	}
}

func TestClassifyErrorFrameRejectsWrongSize(t *testing.T) {
	code, id, raw := classifyErrorFrame([]byte{1, 2, 3})
	assert.Equal(t, ErrUnknown, code)
	assert.Zero(t, id)
	assert.Zero(t, raw)
}

func TestClassifyErrorFrameUndocumentedCommandStillReturnsID(t *testing.T) {
	frame := frameWith(appleStatusShutdown, 42)
	frame[0] = 99

	code, id, _ := classifyErrorFrame(frame)
	assert.Equal(t, ErrUnknown, code)
	assert.Equal(t, uint32(42), id)
}

func TestErrorStringFallsBackForUnknownCode(t *testing.T) {
	assert.Contains(t, ErrorCode(9999).String(), "unknown error code")
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := assert.AnError
	err := wrapError(ErrSSLWriteFailed, cause)
	assert.Equal(t, ErrSSLWriteFailed, err.Code)
	assert.ErrorIs(t, err, cause)
}
