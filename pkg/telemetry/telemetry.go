// Package telemetry decodes the fixed-layout GET_STATUS payload into
// axis and main status records. Decoding is strictly positional: no
// delimiter, no self-description, branching only on device variant.
package telemetry

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/newpro/autoloader/pkg/deviceerr"
)

// Variant names the two hardware generations, selected by the
// GET_VERSION version word: version == 0 selects Alpha, any other
// value selects Beta. A Beta device reporting version 0.x would
// mis-detect as Alpha; this mirrors the firmware's own behavior
// exactly rather than guessing a fix.
type Variant int

const (
	Beta Variant = iota
	Alpha
)

// VariantFromVersion classifies a GET_VERSION version word.
func VariantFromVersion(version uint16) Variant {
	if version == 0 {
		return Alpha
	}
	return Beta
}

// Overall status bits, OR'd into AxisStatus.OverallStatus.
const (
	AbsolutePositionKnown uint16 = 1 << 0
	PhaseDetected         uint16 = 1 << 1
	ServoEnabled          uint16 = 1 << 2
	InMotion              uint16 = 1 << 3
)

const (
	betaAxisSize  = 46
	alphaAxisSize = 102
	mainSize      = 60

	actionNameSize = 32
)

// DriveRegisters carries the Beta axis's nine raw uint32 drive/motor
// registers verbatim: not interpreted, just named so callers don't
// have to re-derive byte offsets.
type DriveRegisters struct {
	DriveStatus     uint32
	StepCount       uint32
	ActualCurrent   uint32
	MotionStatus    uint32
	MotorPosition   uint32
	EncoderPosition uint32
	MotorVelocity   uint32
	PWMStatus       uint32
	GeneralStatus   uint32
}

// AlphaRegisters carries the Alpha axis's twelve pre-status fields.
type AlphaRegisters struct {
	ElectricalCyclePosition         uint32
	LatchedEncoderPosition          uint32
	PhaseSyncError                  uint32
	StatorAngle                     uint16
	RotorAngle                      uint16
	StatorFrequency                 uint16
	RotorFrequency                  uint16
	CommutationCounts               uint32
	CapturedElectricalCyclePosition uint32
	PhaseSyncAdjustment             uint32
	StepCyclePosition               uint32
	PositionCapture                 uint32
}

// AxisStatus is one axis's decoded telemetry record. Drive and Alpha
// are mutually exclusive depending on the variant the record was
// decoded under; the unused one is the zero value.
type AxisStatus struct {
	Position      float64
	OverallStatus uint16
	Drive         DriveRegisters // populated for Beta
	Alpha         AlphaRegisters // populated for Alpha
}

// IsHomed reports whether the axis has a known absolute position.
func (a AxisStatus) IsHomed() bool {
	return a.OverallStatus&AbsolutePositionKnown != 0
}

// SlotState is the tri-state classification returned by
// MainStatus.SlotState.
type SlotState int

const (
	Absent SlotState = iota
	Present
	Unknown
)

func (s SlotState) String() string {
	switch s {
	case Present:
		return "Present"
	case Absent:
		return "Absent"
	default:
		return "Unknown"
	}
}

// MainStatus is the decoded 60-byte main status record.
type MainStatus struct {
	SlotKnown       uint32
	SlotState_      uint32 // raw bitset; read via SlotState(n)
	ClosestSlot     int32
	PercentExtended float64
	ActionName      string // trailing NULs trimmed
	LastError       deviceerr.LastError
	GrippedFromSlot int32
}

// SlotState classifies slot n (1-based) against the known/state
// bitsets. Depends only on bit n-1 of each bitset.
func (m MainStatus) SlotState(n int) SlotState {
	bit := uint32(1) << uint(n-1)
	if m.SlotKnown&bit == 0 {
		return Unknown
	}
	if m.SlotState_&bit != 0 {
		return Present
	}
	return Absent
}

// IsGripped reports whether the gripper currently holds a cassette.
func (m MainStatus) IsGripped() bool {
	return m.GrippedFromSlot != 0
}

// Snapshot is a fully decoded GET_STATUS response: two axes and one
// main record.
type Snapshot struct {
	Elevator AxisStatus
	Loader   AxisStatus
	Main     MainStatus
}

// Decode parses a GET_STATUS response body starting at offset, using
// the layout selected by variant. Decoding order is elevator axis,
// loader axis, main status. Returns the offset just past the consumed
// bytes.
func Decode(body []byte, offset int, variant Variant) (Snapshot, int, error) {
	var snap Snapshot
	var err error

	snap.Elevator, offset, err = decodeAxis(body, offset, variant)
	if err != nil {
		return Snapshot{}, 0, err
	}
	snap.Loader, offset, err = decodeAxis(body, offset, variant)
	if err != nil {
		return Snapshot{}, 0, err
	}
	snap.Main, offset, err = decodeMain(body, offset)
	if err != nil {
		return Snapshot{}, 0, err
	}

	return snap, offset, nil
}

func decodeAxis(body []byte, offset int, variant Variant) (AxisStatus, int, error) {
	size := betaAxisSize
	if variant == Alpha {
		size = alphaAxisSize
	}
	if offset+size > len(body) {
		return AxisStatus{}, 0, deviceerr.New(deviceerr.InvalidResponseLength)
	}

	var axis AxisStatus
	axis.Position = math.Float64frombits(binary.LittleEndian.Uint64(body[offset : offset+8]))
	pos := offset + 8

	if variant == Beta {
		axis.OverallStatus = binary.LittleEndian.Uint16(body[pos : pos+2])
		pos += 2
		regs := &axis.Drive
		regs.DriveStatus = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.StepCount = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.ActualCurrent = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.MotionStatus = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.MotorPosition = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.EncoderPosition = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.MotorVelocity = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.PWMStatus = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.GeneralStatus = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
	} else {
		regs := &axis.Alpha
		regs.ElectricalCyclePosition = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.LatchedEncoderPosition = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.PhaseSyncError = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.StatorAngle = binary.LittleEndian.Uint16(body[pos : pos+2])
		pos += 2
		regs.RotorAngle = binary.LittleEndian.Uint16(body[pos : pos+2])
		pos += 2
		regs.StatorFrequency = binary.LittleEndian.Uint16(body[pos : pos+2])
		pos += 2
		regs.RotorFrequency = binary.LittleEndian.Uint16(body[pos : pos+2])
		pos += 2
		regs.CommutationCounts = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.CapturedElectricalCyclePosition = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.PhaseSyncAdjustment = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.StepCyclePosition = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4
		regs.PositionCapture = binary.LittleEndian.Uint32(body[pos : pos+4])
		pos += 4

		axis.OverallStatus = binary.LittleEndian.Uint16(body[pos : pos+2])
		pos += 2
		// Remaining trailing padding bytes up to alphaAxisSize, not carried.
	}

	return axis, offset + size, nil
}

func decodeMain(body []byte, offset int) (MainStatus, int, error) {
	if offset+mainSize > len(body) {
		return MainStatus{}, 0, deviceerr.New(deviceerr.InvalidResponseLength)
	}

	pos := offset
	var m MainStatus

	m.SlotKnown = binary.LittleEndian.Uint32(body[pos : pos+4])
	pos += 4
	m.SlotState_ = binary.LittleEndian.Uint32(body[pos : pos+4])
	pos += 4
	m.ClosestSlot = int32(binary.LittleEndian.Uint32(body[pos : pos+4]))
	pos += 4
	m.PercentExtended = math.Float64frombits(binary.LittleEndian.Uint64(body[pos : pos+8]))
	pos += 8

	rawName := body[pos : pos+actionNameSize]
	m.ActionName = strings.TrimRight(string(rawName), "\x00")
	pos += actionNameSize

	lastErr := binary.LittleEndian.Uint32(body[pos : pos+4])
	m.LastError = deviceerr.NewLastError(uint8(lastErr))
	pos += 4

	m.GrippedFromSlot = int32(binary.LittleEndian.Uint32(body[pos : pos+4]))
	pos += 4

	return m, pos, nil
}
