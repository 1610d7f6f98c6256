// Package transport owns the TCP socket for one channel (command or
// status): multi-address fail-over dialing, a bounded receive loop
// with cooperative cancellation, and serialized access.
package transport

import (
	"bytes"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/newpro/autoloader/pkg/deviceerr"
)

const (
	// DefaultTimeout is used for the initial dial to each candidate
	// address; per-Send timeouts are supplied by the caller.
	DefaultTimeout = 5 * time.Second

	// pollInterval is the read-deadline granularity inside Send's
	// receive loop: the resolution at which cancellation and overall
	// timeout are re-checked.
	pollInterval = 500 * time.Millisecond

	receiveChunkSize = 2048
)

var cancelRequested atomic.Bool

var installSignalOnce sync.Once

// installCancelOnSignal wires SIGINT to the process-wide cancellation
// flag. It runs once no matter how many Connections are constructed;
// the flag itself is a single process-wide atomic shared by every
// Connection, not one per instance.
func installCancelOnSignal() {
	installSignalOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT)
		go func() {
			for range ch {
				cancelRequested.Store(true)
			}
		}()
	})
}

// Cancel sets the process-wide cancellation flag, unblocking every
// in-flight Send across every Connection. Exposed so embedders can
// trigger cancellation programmatically (e.g. from Loader.Stop's
// signal-handler shape) without relying solely on SIGINT.
func Cancel() {
	cancelRequested.Store(true)
}

// ResetCancel clears the flag. A fresh command after a cancelled one
// is expected to proceed normally, so long-lived processes that
// survive a single Ctrl-C need a way back to an uncancelled state.
func ResetCancel() {
	cancelRequested.Store(false)
}

func isCancelled() bool {
	return cancelRequested.Load()
}

// Connection owns one TCP socket with multi-address fail-over. It is
// lazily connected: construction performs no I/O.
type Connection struct {
	addresses  []string
	port       int
	terminator []byte

	mu            sync.Mutex
	conn          net.Conn
	activeAddress string
}

// New creates a Connection over the given ordered candidate addresses
// and TCP port. terminator may be nil, in which case Send returns the
// first non-empty chunk read rather than scanning for a delimiter.
func New(addresses []string, port int, terminator []byte) *Connection {
	installCancelOnSignal()
	return &Connection{
		addresses:  addresses,
		port:       port,
		terminator: terminator,
	}
}

// ActiveAddress reports which candidate address is currently
// connected, or "" if disconnected.
func (c *Connection) ActiveAddress() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeAddress
}

// Send transmits msg and returns the response, reconnecting first if
// necessary. Access is serialized: concurrent callers on the same
// Connection block on each other, which is what lets a STOP sent on
// the status Connection preempt a long motion command queued on the
// (different) command Connection. Send must not be called reentrantly
// by the same goroutine; nothing in this module does.
func (c *Connection) Send(msg []byte, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connectLocked(); err != nil {
			return nil, err
		}
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		c.disconnectLocked()
		return nil, deviceerr.Wrap(deviceerr.NetworkWriteFailed, err)
	}
	if _, err := c.conn.Write(msg); err != nil {
		c.disconnectLocked()
		return nil, deviceerr.Wrap(deviceerr.NetworkWriteFailed, err)
	}

	resp, err := c.receiveLocked(timeout)
	if err != nil {
		c.disconnectLocked()
		return nil, err
	}
	return resp, nil
}

func (c *Connection) receiveLocked(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	var acc []byte
	buf := make([]byte, receiveChunkSize)

	for {
		if isCancelled() {
			return nil, deviceerr.New(deviceerr.Cancelled)
		}
		now := time.Now()
		if now.After(deadline) {
			return nil, deviceerr.New(deviceerr.Timeout)
		}

		tick := now.Add(pollInterval)
		if tick.After(deadline) {
			tick = deadline
		}
		if err := c.conn.SetReadDeadline(tick); err != nil {
			return nil, deviceerr.Wrap(deviceerr.NetworkReadFailed, err)
		}

		n, err := c.conn.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			if c.terminator == nil {
				return acc, nil
			}
			if idx := bytes.Index(acc, c.terminator); idx != -1 {
				return acc[:idx+len(c.terminator)], nil
			}
			continue
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				// Poll tick expired with nothing read; loop around to
				// re-check cancellation and overall timeout.
				continue
			}
			return nil, deviceerr.Wrap(deviceerr.NetworkReadFailed, err)
		}
	}
}

// connectLocked iterates the candidate addresses in order, first
// success wins. A prior working address is not preferred on
// reconnect; the search always restarts at the head of the list.
func (c *Connection) connectLocked() error {
	var lastErr error
	for _, addr := range c.addresses {
		conn, err := net.DialTimeout("tcp", net.JoinHostPort(addr, strconv.Itoa(c.port)), DefaultTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		c.conn = conn
		c.activeAddress = addr
		return nil
	}

	if lastErr != nil {
		return deviceerr.Wrap(deviceerr.ConnectionFailed, lastErr)
	}
	return deviceerr.New(deviceerr.ConnectionFailed)
}

func (c *Connection) disconnectLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.activeAddress = ""
	}
}

// Close tears down the socket, if any. Safe to call whether or not a
// connection is currently open.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.activeAddress = ""
	return err
}
