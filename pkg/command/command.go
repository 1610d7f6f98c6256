// Package command layers outgoing sequence-numbered command frames and
// response validation on top of pkg/frame and pkg/transport. It owns
// no socket of its own; a Channel wraps one *transport.Connection.
package command

import (
	"sync"
	"time"

	"github.com/newpro/autoloader/pkg/deviceerr"
	"github.com/newpro/autoloader/pkg/frame"
)

// Code identifies a wire command.
type Code byte

const (
	GetVersion     Code = 0
	Home           Code = 4
	Stop           Code = 6
	GetStatus      Code = 7
	SetSlotState   Code = 12
	Load           Code = 16
	LoadCassette   Code = 18
	Evac           Code = 22
	ClearLastError Code = 23
)

// Axis identifies the mechanical subsystem addressed by HOME.
type Axis byte

const (
	Elevator Axis = 0
	Loader   Axis = 1
	All      Axis = 2
)

const (
	toDevice = 1
	fromHost = 0
)

// Channel builds and sends command frames over one Connection,
// maintaining the connection's monotonic sequence id. It is safe for
// concurrent use: its own mutex serializes sequence-id allocation and
// the underlying Connection.Send serializes the actual transmit.
type Channel struct {
	conn transportSender

	mu  sync.Mutex
	seq byte // last-assigned sequence id; 0 before the first send
}

// transportSender is the subset of *transport.Connection a Channel
// needs, named to keep this package's tests free of a real socket.
type transportSender interface {
	Send(msg []byte, timeout time.Duration) ([]byte, error)
}

// New wraps conn (typically a *transport.Connection) with sequence-id
// management.
func New(conn transportSender) *Channel {
	return &Channel{conn: conn}
}

// nextSeq bumps the sequence id: wraps 255 -> 1, never yields 0.
func (c *Channel) nextSeq() byte {
	if c.seq >= 255 {
		c.seq = 1
	} else {
		c.seq++
	}
	return c.seq
}

// Send builds a frame for cmdCode+payload, transmits it, and validates
// the response: command-code echo, then device result code. On
// success it returns the full response body (cmd_code, result_code,
// payload...) so callers can read payload starting at offset 2.
func (c *Channel) Send(cmdCode Code, payload []byte, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	seq := c.nextSeq()
	c.mu.Unlock()

	req := frame.Encode(frame.Header{To: toDevice, From: fromHost, Seq: seq}, byte(cmdCode), payload)

	raw, err := c.conn.Send(req, timeout)
	if err != nil {
		return nil, err
	}

	body, err := frame.Decode(raw)
	if err != nil {
		return nil, err
	}

	if len(body) < 2 {
		return nil, deviceerr.New(deviceerr.InvalidResponseLength)
	}
	if body[0] != byte(cmdCode) {
		return nil, deviceerr.New(deviceerr.InvalidResponseDataType)
	}

	result, ok := deviceerr.Lookup(body[1])
	if !ok {
		result = deviceerr.Unknown
	}
	if result != deviceerr.NoError {
		return nil, deviceerr.New(result)
	}

	return body, nil
}
