package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBinaryRoundTrip(t *testing.T) {
	hexToken := strings.Repeat("a", 64)

	raw, err := ToBinary(hexToken)
	require.NoError(t, err)
	assert.Len(t, raw, Size)

	back, err := ToHex(raw)
	require.NoError(t, err)
	assert.Equal(t, hexToken, back)
}

func TestToBinaryRejectsBadHex(t *testing.T) {
	_, err := ToBinary("not-hex-zzzz")
	assert.Error(t, err)
}

func TestToBinaryRejectsWrongLength(t *testing.T) {
	_, err := ToBinary("abcd")
	require.Error(t, err)
	var lenErr *ErrInvalidLength
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, 2, lenErr.Got)
}

func TestToHexRejectsWrongLength(t *testing.T) {
	_, err := ToHex([]byte{1, 2, 3})
	assert.Error(t, err)
}
