package telemetrybus

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newpro/autoloader/pkg/deviceerr"
	"github.com/newpro/autoloader/pkg/telemetry"
)

// Bus.Mirror/Latest round-trip each structure through CBOR independent
// of any live Redis connection (New requires a real server to PING, so
// it is not exercised here). Verifies the encoding this package
// actually stores is lossless for every field it cares about.
func TestSnapshotFieldsRoundTripThroughCBOR(t *testing.T) {
	snap := telemetry.Snapshot{
		Elevator: telemetry.AxisStatus{
			Position:      12.5,
			OverallStatus: telemetry.AbsolutePositionKnown | telemetry.InMotion,
			Drive: telemetry.DriveRegisters{
				DriveStatus: 1, StepCount: 2, ActualCurrent: 3,
			},
		},
		Loader: telemetry.AxisStatus{Position: -1.0},
		Main: telemetry.MainStatus{
			SlotKnown:       0b101,
			SlotState_:      0b001,
			ClosestSlot:     2,
			PercentExtended: 87.5,
			ActionName:      "HOME",
			LastError:       deviceerr.NewLastError(0),
			GrippedFromSlot: 3,
		},
	}

	elevatorBytes, err := cbor.Marshal(snap.Elevator)
	require.NoError(t, err)
	loaderBytes, err := cbor.Marshal(snap.Loader)
	require.NoError(t, err)
	mainBytes, err := cbor.Marshal(snap.Main)
	require.NoError(t, err)

	var elevator telemetry.AxisStatus
	var loader telemetry.AxisStatus
	var main telemetry.MainStatus
	require.NoError(t, cbor.Unmarshal(elevatorBytes, &elevator))
	require.NoError(t, cbor.Unmarshal(loaderBytes, &loader))
	require.NoError(t, cbor.Unmarshal(mainBytes, &main))

	assert.Equal(t, snap.Elevator, elevator)
	assert.Equal(t, snap.Loader, loader)
	assert.Equal(t, snap.Main, main)
}
