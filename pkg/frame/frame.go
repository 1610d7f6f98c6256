// Package frame implements the autoloader's envelope: start/end
// markers, header, CRC-wrapped body. It knows nothing about sockets,
// sequence ids, or command semantics; only the byte layout.
package frame

import (
	"encoding/binary"

	"github.com/newpro/autoloader/pkg/crc16"
	"github.com/newpro/autoloader/pkg/deviceerr"
)

const (
	StartByte1 = 0x01
	StartByte2 = 0xFE
	EndByte1   = 0x0D
	EndByte2   = 0x0A

	// MinimumResponseLength is the shortest byte count Decode can index
	// into without going out of range (2 start + 5 header + 2 CRC);
	// anything shorter than an actual minimal frame is still rejected
	// by the body-length check further down.
	MinimumResponseLength = 9

	headerLength = 5 // to, from, seq, len_lo, len_hi
)

// Terminator is the fixed byte sequence that closes every frame on
// the wire, used by the transport layer to delimit reads.
var Terminator = []byte{EndByte1, EndByte2}

// Header addresses a frame: to/from device ids and the sequence
// number assigned by the command channel.
type Header struct {
	To  byte
	From byte
	Seq byte
}

// Encode builds a complete wire frame: markers, header, body
// (cmdCode followed by payload), CRC, end markers.
func Encode(h Header, cmdCode byte, payload []byte) []byte {
	bodyLen := 1 + len(payload)

	buf := make([]byte, 0, 2+headerLength+bodyLen+2+2)
	buf = append(buf, StartByte1, StartByte2)
	buf = append(buf, h.To, h.From, h.Seq)

	lenBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBytes, uint16(bodyLen))
	buf = append(buf, lenBytes...)

	buf = append(buf, cmdCode)
	buf = append(buf, payload...)

	lo, hi := crc16.Compute(buf[2:])
	buf = append(buf, lo, hi)
	buf = append(buf, EndByte1, EndByte2)

	return buf
}

// Decode validates and unwraps a received frame (already delimited by
// Terminator by the transport layer) and returns the body
// ([cmdCode, resultCode, payload...] for a response).
func Decode(resp []byte) ([]byte, error) {
	l := len(resp)
	if l < MinimumResponseLength {
		return nil, deviceerr.New(deviceerr.InvalidResponseLength)
	}

	if resp[0] != StartByte1 || resp[1] != StartByte2 {
		return nil, deviceerr.New(deviceerr.InvalidStartByte)
	}

	// CRC covers header+body: bytes [2, l-4).
	crcRegion := resp[2 : l-4]
	lo, hi := crc16.Compute(crcRegion)
	if lo != resp[l-4] || hi != resp[l-3] {
		return nil, deviceerr.New(deviceerr.InvalidCRC)
	}

	bodyLen := int(binary.LittleEndian.Uint16(resp[5:7]))
	if 7+bodyLen > l-4 {
		return nil, deviceerr.New(deviceerr.InvalidResponseLength)
	}

	return resp[7 : 7+bodyLen], nil
}
