package crc16

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCRCEmptyInput(t *testing.T) {
	lo, hi := Compute(nil)
	assert.Equal(t, byte(0x00), lo)
	assert.Equal(t, byte(0x00), hi)
}

func TestCRCSingleByte(t *testing.T) {
	// 0x07 is GET_STATUS's command code.
	lo, hi := Compute([]byte{0x07})
	assert.Equal(t, byte(0xBF), lo)
	assert.Equal(t, byte(0x74), hi)
}

func TestCRCDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "data")
		lo1, hi1 := Compute(data)
		lo2, hi2 := Compute(data)
		assert.Equal(t, lo1, lo2)
		assert.Equal(t, hi1, hi2)
	})
}

func TestCRCSensitiveToSingleByteFlip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(t, "data")
		idx := rapid.IntRange(0, len(data)-1).Draw(t, "idx")
		flipped := append([]byte(nil), data...)
		flipped[idx] ^= 0xFF

		lo1, hi1 := Compute(data)
		lo2, hi2 := Compute(flipped)
		assert.False(t, lo1 == lo2 && hi1 == hi2, "flipping a byte must change the checksum")
	})
}
