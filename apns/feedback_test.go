package apns

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedbackRecord(timestamp uint32, token []byte) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, timestamp)
	_ = binary.Write(buf, binary.BigEndian, uint16(len(token)))
	buf.Write(token)
	return buf.Bytes()
}

func TestFeedbackReadsOneRecordPerCall(t *testing.T) {
	tokenA := bytes.Repeat([]byte{0xAA}, 32)
	tokenB := bytes.Repeat([]byte{0xBB}, 32)

	stream := append(feedbackRecord(1000, tokenA), feedbackRecord(2000, tokenB)...)
	conn := &mockConn{
		written: new(bytes.Buffer),
		readFunc: func(b []byte) (int, error) {
			if len(stream) == 0 {
				return 0, &net.OpError{Op: "read", Err: errTimeout{}}
			}
			n := copy(b, stream)
			stream = stream[n:]
			return n, nil
		},
	}

	c := NewContext()
	c.feedbackConn = conn

	first, err := c.Feedback()
	require.Nil(t, err)
	assert.Equal(t, []string{hex.EncodeToString(tokenA)}, first)
	assert.NotNil(t, c.feedbackConn)

	second, err := c.Feedback()
	require.Nil(t, err)
	assert.Equal(t, []string{hex.EncodeToString(tokenB)}, second)
	assert.NotNil(t, c.feedbackConn)

	third, err := c.Feedback()
	require.Nil(t, err)
	assert.Empty(t, third)
	assert.Nil(t, c.feedbackConn)
}

func TestFeedbackRequiresConnect(t *testing.T) {
	c := NewContext()
	_, err := c.Feedback()
	require.NotNil(t, err)
	assert.Equal(t, ErrNotConnectedFeedback, err.Code)
}

func TestFeedbackReturnsEmptyOnImmediateIdle(t *testing.T) {
	conn := &mockConn{
		written: new(bytes.Buffer),
		readFunc: func(b []byte) (int, error) {
			return 0, &net.OpError{Op: "read", Err: errTimeout{}}
		},
	}
	c := NewContext()
	c.feedbackConn = conn

	tokens, err := c.Feedback()
	require.Nil(t, err)
	assert.Empty(t, tokens)
	assert.Nil(t, c.feedbackConn)
}
