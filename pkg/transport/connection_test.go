package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startEchoServer listens on an ephemeral port and, for each
// connection, writes back whatever canned response bytes are
// supplied, once per accepted connection.
func startEchoServer(t *testing.T, response []byte) (host string, port int, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 256)
				if _, err := c.Read(buf); err != nil {
					return
				}
				c.Write(response)
				<-done
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, func() {
		close(done)
		ln.Close()
	}
}

func TestSendRoundTrip(t *testing.T) {
	terminator := []byte{0x0D, 0x0A}
	host, port, stop := startEchoServer(t, []byte("hello\r\n"))
	defer stop()

	conn := New([]string{host}, port, terminator)
	resp, err := conn.Send([]byte("ping"), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\r\n"), resp)
	assert.Equal(t, host, conn.ActiveAddress())
}

func TestFailoverToSecondAddress(t *testing.T) {
	terminator := []byte{0x0D, 0x0A}
	_, port, stop := startEchoServer(t, []byte("ok\r\n"))
	defer stop()

	// "127.0.0.2" is a loopback alias with nothing bound to it, so
	// dialing it at the echo server's port refuses immediately and
	// the second address ("127.0.0.1") must be tried.
	conn := New([]string{"127.0.0.2", "127.0.0.1"}, port, terminator)

	resp, err := conn.Send([]byte("ping"), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok\r\n"), resp)
	assert.Equal(t, "127.0.0.1", conn.ActiveAddress())
}

func TestConnectionFailedWhenAllAddressesBad(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close()) // nothing listens here now

	conn := New([]string{"127.0.0.1", "127.0.0.1"}, port, nil)
	_, err = conn.Send([]byte("ping"), 2*time.Second)
	require.Error(t, err)
}

func TestTimeoutDisconnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		buf := make([]byte, 16)
		c.Read(buf)
		time.Sleep(2 * time.Second) // never respond in time
	}()

	addr := ln.Addr().(*net.TCPAddr)
	conn := New([]string{addr.IP.String()}, addr.Port, []byte{0x0D, 0x0A})

	_, err = conn.Send([]byte("ping"), 300*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, "", conn.ActiveAddress(), "timeout must disconnect the socket")
}

func TestCancellation(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		buf := make([]byte, 16)
		c.Read(buf)
		time.Sleep(3 * time.Second)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	conn := New([]string{addr.IP.String()}, addr.Port, []byte{0x0D, 0x0A})

	go func() {
		time.Sleep(100 * time.Millisecond)
		Cancel()
	}()
	defer ResetCancel()

	_, err = conn.Send([]byte("ping"), 5*time.Second)
	require.Error(t, err)
}

func TestActiveAddressBlankWhenDisconnected(t *testing.T) {
	conn := New([]string{"127.0.0.1"}, 1, nil)
	assert.Equal(t, "", conn.ActiveAddress())
}
