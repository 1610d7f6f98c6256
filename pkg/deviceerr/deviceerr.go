// Package deviceerr enumerates the autoloader's device error codes and
// provides the host-side wrapper error type built around them.
package deviceerr

import "fmt"

// Code is a single-kinded device/host error code. Values 0-56 are
// firmware-origin; values 100-117 are host-origin.
type Code uint8

// Firmware-origin codes.
const (
	NoError                        Code = 0
	InvalidMoveType                Code = 1
	InvalidAxis                    Code = 2
	LoadLockDoorOpen               Code = 3
	AlreadyLocked                  Code = 4
	AlreadyUnlocked                Code = 5
	CommFailure                    Code = 6
	InvalidStartByte               Code = 7
	InvalidAddress                 Code = 8
	InvalidSequenceNumber          Code = 9
	InvalidCRC                     Code = 10
	MoveTimeout                    Code = 11
	PhaseDetectFailed              Code = 12
	HomeFailed                     Code = 13
	InvalidDataParameter           Code = 14
	InvalidOpCode                  Code = 15
	InvalidOpCodeForDynamicMotion  Code = 16
	InvalidReferenceFrame          Code = 17
	InvalidBridgeState             Code = 18
	UserDefinedFault               Code = 19
	PosFollowingError              Code = 20
	HomeMoveFailed                 Code = 21
	PositionCaptureAlreadyActive   Code = 22
	PositionCaptureAlreadyInactive Code = 23
	MappingAlreadyActive           Code = 24
	MappingAlreadyInactive         Code = 25
	MapSensorAlarm                 Code = 26
	UnsafeMove                     Code = 27
	NotHomed                       Code = 28
	NoActionPending                Code = 29
	AlreadyGripping                Code = 30
	NotGripping                    Code = 31
	InvalidSlotNumber              Code = 32
	EmptySlot                      Code = 33
	FullSlot                       Code = 34
	StepsPending                   Code = 35
	AlreadyExtended                Code = 36
	NoHardStopFound                Code = 37
	UnsafeVacuum                   Code = 38
	OverPositionRangeLimit         Code = 39
	MoveStopped                    Code = 40
	LoadCassetteInProgress         Code = 41
	NoBeamBreakDetected            Code = 42
	ExtraBeamBreakDetected         Code = 43
	BeamInspectInvalid             Code = 44
	MotionEngineEnableFailed       Code = 45
	MoveFailed                     Code = 46
	BeamInspectDisabled            Code = 47
	UnexpectedGripperState         Code = 48
	UnknownGripperState            Code = 49
	SteppingUnsupported            Code = 50
	UnknownSlotState               Code = 51
	WrongSlot                      Code = 52
	InvalidEvacStartPosition       Code = 53
	HeartbeatTimeout               Code = 54
	MotorStall                     Code = 55
	Unknown                        Code = 56
)

// Host-origin codes.
const (
	SomethingIsUninitialized Code = 100
	InvalidResponseDataType  Code = 101
	InvalidResponseLength    Code = 102
	MemoryAllocationFailure  Code = 103
	ThreadFailure            Code = 104
	UnknownFailure           Code = 105
	InvalidArgumentValue     Code = 106
	NotImplemented           Code = 107
	InvalidLogAddress        Code = 108
	DriverLoadFailure        Code = 109
	FileReadFailure          Code = 110
	DeviceErrorField         Code = 111
	MalformedMessage         Code = 112
	ConnectionFailed         Code = 113
	NetworkReadFailed        Code = 114
	NetworkWriteFailed       Code = 115
	EmptyMapData             Code = 116
	Timeout                  Code = 117

	// Cancelled has no numeric identity in the device's own error
	// table; it is assigned the first unused host-origin slot after
	// Timeout.
	Cancelled Code = 118
)

var names = map[Code]string{
	NoError: "NoError", InvalidMoveType: "InvalidMoveType", InvalidAxis: "InvalidAxis",
	LoadLockDoorOpen: "LoadLockDoorOpen", AlreadyLocked: "AlreadyLocked", AlreadyUnlocked: "AlreadyUnlocked",
	CommFailure: "CommFailure", InvalidStartByte: "InvalidStartByte", InvalidAddress: "InvalidAddress",
	InvalidSequenceNumber: "InvalidSequenceNumber", InvalidCRC: "InvalidCRC", MoveTimeout: "MoveTimeout",
	PhaseDetectFailed: "PhaseDetectFailed", HomeFailed: "HomeFailed", InvalidDataParameter: "InvalidDataParameter",
	InvalidOpCode: "InvalidOpCode", InvalidOpCodeForDynamicMotion: "InvalidOpCodeForDynamicMotion",
	InvalidReferenceFrame: "InvalidReferenceFrame", InvalidBridgeState: "InvalidBridgeState",
	UserDefinedFault: "UserDefinedFault", PosFollowingError: "PosFollowingError", HomeMoveFailed: "HomeMoveFailed",
	PositionCaptureAlreadyActive: "PositionCaptureAlreadyActive", PositionCaptureAlreadyInactive: "PositionCaptureAlreadyInactive",
	MappingAlreadyActive: "MappingAlreadyActive", MappingAlreadyInactive: "MappingAlreadyInactive",
	MapSensorAlarm: "MapSensorAlarm", UnsafeMove: "UnsafeMove", NotHomed: "NotHomed",
	NoActionPending: "NoActionPending", AlreadyGripping: "AlreadyGripping", NotGripping: "NotGripping",
	InvalidSlotNumber: "InvalidSlotNumber", EmptySlot: "EmptySlot", FullSlot: "FullSlot",
	StepsPending: "StepsPending", AlreadyExtended: "AlreadyExtended", NoHardStopFound: "NoHardStopFound",
	UnsafeVacuum: "UnsafeVacuum", OverPositionRangeLimit: "OverPositionRangeLimit", MoveStopped: "MoveStopped",
	LoadCassetteInProgress: "LoadCassetteInProgress", NoBeamBreakDetected: "NoBeamBreakDetected",
	ExtraBeamBreakDetected: "ExtraBeamBreakDetected", BeamInspectInvalid: "BeamInspectInvalid",
	MotionEngineEnableFailed: "MotionEngineEnableFailed", MoveFailed: "MoveFailed",
	BeamInspectDisabled: "BeamInspectDisabled", UnexpectedGripperState: "UnexpectedGripperState",
	UnknownGripperState: "UnknownGripperState", SteppingUnsupported: "SteppingUnsupported",
	UnknownSlotState: "UnknownSlotState", WrongSlot: "WrongSlot", InvalidEvacStartPosition: "InvalidEvacStartPosition",
	HeartbeatTimeout: "HeartbeatTimeout", MotorStall: "MotorStall", Unknown: "Unknown",

	SomethingIsUninitialized: "SomethingIsUninitialized", InvalidResponseDataType: "InvalidResponseDataType",
	InvalidResponseLength: "InvalidResponseLength", MemoryAllocationFailure: "MemoryAllocationFailure",
	ThreadFailure: "ThreadFailure", UnknownFailure: "UnknownFailure", InvalidArgumentValue: "InvalidArgumentValue",
	NotImplemented: "NotImplemented", InvalidLogAddress: "InvalidLogAddress", DriverLoadFailure: "DriverLoadFailure",
	FileReadFailure: "FileReadFailure", DeviceErrorField: "DeviceErrorField", MalformedMessage: "MalformedMessage",
	ConnectionFailed: "ConnectionFailed", NetworkReadFailed: "NetworkReadFailed", NetworkWriteFailed: "NetworkWriteFailed",
	EmptyMapData: "EmptyMapData", Timeout: "Timeout", Cancelled: "Cancelled",
}

func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

// Lookup resolves a raw byte off the wire to a known Code. It never
// panics on an out-of-range value the way the original source's
// enum-cast-under-try/except did; unknown firmware-range values are
// reported as not-ok so the caller can fall back to Unknown or keep
// the raw byte (see LastError).
func Lookup(raw uint8) (Code, bool) {
	_, ok := names[Code(raw)]
	return Code(raw), ok
}

// Error is the single error type every failure in this module
// surfaces as. It always carries one Code and optionally the
// underlying cause (a transport error, a context error, etc).
type Error struct {
	Code  Code
	Cause error
}

func New(code Code) *Error {
	return &Error{Code: code}
}

func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("autoloader: %s: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("autoloader: %s", e.Code)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *Error with the same Code, so
// callers can do errors.Is(err, deviceerr.New(deviceerr.NotHomed)).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// LastError is the tagged-variant replacement for the source's
// overloaded `last_error` return (either a DeviceError or a raw int).
// Known is true only when Raw matched an entry in the error table; in
// that case Code is meaningful. Otherwise callers should treat Raw as
// the ground truth.
type LastError struct {
	Code  Code
	Raw   uint8
	Known bool
}

// NewLastError classifies a raw byte read from the main status block.
func NewLastError(raw uint8) LastError {
	code, ok := Lookup(raw)
	return LastError{Code: code, Raw: raw, Known: ok}
}

func (l LastError) String() string {
	if l.Known {
		return l.Code.String()
	}
	return fmt.Sprintf("raw(%d)", l.Raw)
}
