package message

import (
	"errors"
	"strconv"
)

// BadgeNumber is the badge count shown over the app icon. The zero
// value is unset ("leave the badge alone"); Set gives it a value,
// including 0, so a payload can explicitly clear the device's badge
// without omitting the field.
type BadgeNumber struct {
	value *int
}

// Number returns the configured badge number, or 0 if unset.
func (b *BadgeNumber) Number() int {
	if b.value == nil {
		return 0
	}
	return *b.value
}

// IsSet reports whether this BadgeNumber should be included in the
// marshalled payload.
func (b *BadgeNumber) IsSet() bool {
	return b.value != nil
}

// Unset clears the badge number and removes it from the payload.
func (b *BadgeNumber) Unset() {
	b.value = nil
}

// Set assigns the badge number. Pass 0 to clear the badge on the
// device while still including the field in the payload.
func (b *BadgeNumber) Set(number int) error {
	if number < 0 {
		return errors.New("badge number must be >= 0")
	}
	b.value = &number
	return nil
}

// MarshalJSON renders the badge number, defaulting to 0 if unset.
func (b BadgeNumber) MarshalJSON() ([]byte, error) {
	if b.value == nil {
		return []byte("0"), nil
	}
	return []byte(strconv.Itoa(*b.value)), nil
}

// UnmarshalJSON sets the badge number and marks it as set.
func (b *BadgeNumber) UnmarshalJSON(data []byte) error {
	val, err := strconv.ParseInt(string(data), 10, 32)
	if err != nil {
		return errors.New("badge number: cannot unmarshal into int")
	}
	number := int(val)
	b.value = &number
	return nil
}

// NewBadgeNumber returns a BadgeNumber already marked as set.
func NewBadgeNumber(number int) BadgeNumber {
	return BadgeNumber{value: &number}
}
