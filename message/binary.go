// Package message implements the "binary_message_encode" external
// collaborator: turning a Payload into the enhanced binary
// notification frame APNs expects, and exposing the two fields the
// delivery loop mutates per token (notification id, device token)
// without re-encoding the JSON payload on every iteration.
package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// frameCommand is the APNs "enhanced notification" frame command
	// byte (command 2 in the legacy binary protocol).
	frameCommand = 2

	itemToken        = 1
	itemPayload      = 2
	itemID           = 3
	itemExpiration   = 4
	itemPriority     = 5

	tokenItemLen = 32
	idItemLen    = 4

	// frameHeaderSize is [command(1)][frame length(4)].
	frameHeaderSize = 5
)

// BinaryMessage is a pre-built enhanced binary notification frame.
// Everything except the notification id and device token is fixed
// once Encode returns; SetID and SetToken mutate those two fields
// in place so a batch send can reuse one BinaryMessage across every
// token without re-marshalling the payload.
type BinaryMessage struct {
	buf         []byte
	tokenOffset int
	idOffset    int
}

// Encode marshals payload to JSON (truncating the alert if needed to
// fit maxPayloadSize) and lays out an enhanced binary frame around
// it, with the token and notification-id fields zeroed out ready for
// SetToken/SetID.
func Encode(payload *Payload, maxPayloadSize int) (*BinaryMessage, error) {
	payloadBytes, err := payload.marshalJSON(maxPayloadSize)
	if err != nil {
		return nil, fmt.Errorf("message: encode payload: %w", err)
	}

	items := new(bytes.Buffer)

	tokenOffset := frameHeaderSize + items.Len() + 3 // +3 for item tag + 2-byte length
	writeItem(items, itemToken, make([]byte, tokenItemLen))

	writeItem(items, itemPayload, payloadBytes)

	idOffset := frameHeaderSize + items.Len() + 3
	writeItem(items, itemID, make([]byte, idItemLen))

	if payload.ExpirationTime != 0 {
		expBytes := make([]byte, 4)
		binary.BigEndian.PutUint32(expBytes, payload.ExpirationTime)
		writeItem(items, itemExpiration, expBytes)
	}

	if payload.Priority == 10 || payload.Priority == 5 {
		writeItem(items, itemPriority, []byte{payload.Priority})
	}

	frame := new(bytes.Buffer)
	frame.WriteByte(frameCommand)
	var frameLen [4]byte
	binary.BigEndian.PutUint32(frameLen[:], uint32(items.Len()))
	frame.Write(frameLen[:])
	items.WriteTo(frame)

	return &BinaryMessage{
		buf:         frame.Bytes(),
		tokenOffset: tokenOffset,
		idOffset:    idOffset,
	}, nil
}

func writeItem(buf *bytes.Buffer, tag uint8, data []byte) {
	buf.WriteByte(tag)
	var lenBytes [2]byte
	binary.BigEndian.PutUint16(lenBytes[:], uint16(len(data)))
	buf.Write(lenBytes[:])
	buf.Write(data)
}

// SetID overwrites the notification id field in place.
func (m *BinaryMessage) SetID(id uint32) {
	binary.BigEndian.PutUint32(m.buf[m.idOffset:m.idOffset+idItemLen], id)
}

// SetToken overwrites the device token field in place. raw must be
// exactly 32 bytes (see package token).
func (m *BinaryMessage) SetToken(raw []byte) error {
	if len(raw) != tokenItemLen {
		return fmt.Errorf("message: token must be %d bytes, got %d", tokenItemLen, len(raw))
	}
	copy(m.buf[m.tokenOffset:m.tokenOffset+tokenItemLen], raw)
	return nil
}

// Bytes returns the full frame, ready to write to the socket. The
// returned slice is owned by the BinaryMessage and is overwritten on
// the next SetID/SetToken call; callers must finish writing it before
// mutating again.
func (m *BinaryMessage) Bytes() []byte {
	return m.buf
}
