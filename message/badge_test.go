package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeNumberDefaultsUnset(t *testing.T) {
	var b BadgeNumber
	assert.False(t, b.IsSet())
	assert.Equal(t, 0, b.Number())
}

func TestBadgeNumberSet(t *testing.T) {
	var b BadgeNumber
	require.NoError(t, b.Set(5))
	assert.True(t, b.IsSet())
	assert.Equal(t, 5, b.Number())
}

func TestBadgeNumberSetRejectsNegative(t *testing.T) {
	var b BadgeNumber
	assert.Error(t, b.Set(-1))
}

func TestBadgeNumberUnset(t *testing.T) {
	b := NewBadgeNumber(3)
	b.Unset()
	assert.False(t, b.IsSet())
	assert.Equal(t, 0, b.Number())
}

func TestBadgeNumberMarshalUnmarshal(t *testing.T) {
	b := NewBadgeNumber(11)
	data, err := b.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "11", string(data))

	var b2 BadgeNumber
	require.NoError(t, b2.UnmarshalJSON(data))
	assert.True(t, b2.IsSet())
	assert.Equal(t, 11, b2.Number())
}
