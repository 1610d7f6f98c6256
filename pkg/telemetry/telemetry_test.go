package telemetry

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/newpro/autoloader/pkg/deviceerr"
)

func putU32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], v)
}

func putU16(buf []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(buf[off:off+2], v)
}

func putF64(buf []byte, off int, v float64) {
	binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(v))
}

func betaAxisBytes(position float64, overall uint16, regs [9]uint32) []byte {
	buf := make([]byte, betaAxisSize)
	putF64(buf, 0, position)
	putU16(buf, 8, overall)
	for i, v := range regs {
		putU32(buf, 10+i*4, v)
	}
	return buf
}

func mainStatusBytes(slotKnown, slotState uint32, closest int32, percent float64, action string, lastErr uint32, gripped int32) []byte {
	buf := make([]byte, mainSize)
	putU32(buf, 0, slotKnown)
	putU32(buf, 4, slotState)
	putU32(buf, 8, uint32(closest))
	putF64(buf, 12, percent)
	copy(buf[20:52], []byte(action))
	putU32(buf, 52, lastErr)
	putU32(buf, 56, uint32(gripped))
	return buf
}

func TestVariantFromVersion(t *testing.T) {
	assert.Equal(t, Alpha, VariantFromVersion(0))
	assert.Equal(t, Beta, VariantFromVersion(1))
	assert.Equal(t, Beta, VariantFromVersion(2))
}

func TestDecodeBetaStatus(t *testing.T) {
	elevator := betaAxisBytes(12.5, AbsolutePositionKnown, [9]uint32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	loader := betaAxisBytes(-3.0, 0, [9]uint32{})
	main := mainStatusBytes(0b101, 0b001, -1, 50.0, "HOME", 0, 0)

	body := append(append(elevator, loader...), main...)

	snap, next, err := Decode(body, 0, Beta)
	require.NoError(t, err)
	assert.Equal(t, len(body), next) // 46+46+60 bytes consumed exactly

	assert.InDelta(t, 12.5, snap.Elevator.Position, 1e-9)
	assert.True(t, snap.Elevator.IsHomed())
	assert.False(t, snap.Loader.IsHomed())
	assert.Equal(t, uint32(3), snap.Elevator.Drive.ActualCurrent)
	assert.Equal(t, "HOME", snap.Main.ActionName)
	assert.Equal(t, Present, snap.Main.SlotState(1))
	assert.Equal(t, Unknown, snap.Main.SlotState(2))
	assert.Equal(t, Absent, snap.Main.SlotState(3))
}

func TestDecodeAlphaStatus(t *testing.T) {
	elevator := make([]byte, alphaAxisSize)
	putF64(elevator, 0, 1.0)
	putU16(elevator, 48, AbsolutePositionKnown|InMotion) // 8 (position) + 40 (pre-status fields)
	loader := make([]byte, alphaAxisSize)
	main := mainStatusBytes(0, 0, 0, 0, "", 200, 0) // undefined result code

	body := append(append(elevator, loader...), main...)
	snap, next, err := Decode(body, 0, Alpha)
	require.NoError(t, err)
	assert.Equal(t, len(body), next) // 102+102+60

	assert.True(t, snap.Elevator.IsHomed())
	assert.True(t, snap.Elevator.OverallStatus&InMotion != 0)
	assert.False(t, snap.Main.LastError.Known)
	assert.Equal(t, uint8(200), snap.Main.LastError.Raw)
}

func TestDecodeShortBodyFails(t *testing.T) {
	body := make([]byte, 10)
	_, _, err := Decode(body, 0, Beta)
	require.Error(t, err)
	var derr *deviceerr.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, deviceerr.InvalidResponseLength, derr.Code)
}

func TestActionNameTrimsTrailingNULs(t *testing.T) {
	main := mainStatusBytes(0, 0, 0, 0, "EVAC\x00\x00\x00", 0, 3)
	m, _, err := decodeMain(main, 0)
	require.NoError(t, err)
	assert.Equal(t, "EVAC", m.ActionName)
	assert.True(t, m.IsGripped())
	assert.Equal(t, int32(3), m.GrippedFromSlot)
}

// slot_state(n) depends only on bit n-1 of the two bitsets.
func TestSlotStateDependsOnlyOnOwnBit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		known := uint32(rapid.Uint32().Draw(t, "known"))
		state := uint32(rapid.Uint32().Draw(t, "state"))
		n := rapid.IntRange(1, 32).Draw(t, "n")

		m := MainStatus{SlotKnown: known, SlotState_: state}
		got := m.SlotState(n)

		bit := uint32(1) << uint(n-1)
		if known&bit == 0 {
			assert.Equal(t, Unknown, got)
		} else if state&bit != 0 {
			assert.Equal(t, Present, got)
		} else {
			assert.Equal(t, Absent, got)
		}
	})
}

// is_homed is monotone in AbsolutePositionKnown.
func TestIsHomedMonotone(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		elevatorBits := uint16(rapid.Uint16().Draw(t, "elevatorBits"))
		loaderBits := uint16(rapid.Uint16().Draw(t, "loaderBits"))

		elevator := AxisStatus{OverallStatus: elevatorBits}
		loader := AxisStatus{OverallStatus: loaderBits}
		homed := elevator.IsHomed() && loader.IsHomed()

		elevatorSet := AxisStatus{OverallStatus: elevatorBits | AbsolutePositionKnown}
		loaderSet := AxisStatus{OverallStatus: loaderBits | AbsolutePositionKnown}
		assert.True(t, elevatorSet.IsHomed() && loaderSet.IsHomed())

		elevatorClear := AxisStatus{OverallStatus: elevatorBits &^ AbsolutePositionKnown}
		loaderClear := AxisStatus{OverallStatus: loaderBits &^ AbsolutePositionKnown}
		assert.False(t, elevatorClear.IsHomed())
		assert.False(t, loaderClear.IsHomed())

		if !homed {
			// Setting both bits must turn the derived value on.
			assert.True(t, elevatorSet.IsHomed() && loaderSet.IsHomed())
		}
	})
}
