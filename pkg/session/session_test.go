package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/cbodonnell/chatline/pkg/console"
	"github.com/cbodonnell/chatline/pkg/endpoint"
	"github.com/cbodonnell/chatline/pkg/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 5 * time.Second

// syncBuffer is written by both session loops while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// countingConn records how many times Close was called.
type countingConn struct {
	net.Conn
	closes atomic.Int32
}

func (c *countingConn) Close() error {
	c.closes.Add(1)
	return c.Conn.Close()
}

// failingConn rejects every write.
type failingConn struct {
	net.Conn
}

func (c *failingConn) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

type harness struct {
	session *Session
	out     *syncBuffer
	errOut  *syncBuffer
	exits   chan int
}

func newHarness(t *testing.T, conn net.Conn, input io.Reader) *harness {
	t.Helper()
	out, errOut := &syncBuffer{}, &syncBuffer{}
	c := console.New(out, errOut)
	c.DisableColor()

	h := &harness{
		out:    out,
		errOut: errOut,
		exits:  make(chan int, 4),
	}
	h.session = NewSession(NewSessionOptions{
		Conn:    conn,
		Input:   input,
		Console: c,
		Exit: func(code int) {
			h.exits <- code
		},
	})
	return h
}

// run starts Run and returns a channel receiving its result.
func (h *harness) run() <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- h.session.Run()
	}()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(waitFor):
		t.Fatal("session did not end")
		return nil
	}
}

// newPeer returns both ends of a loopback TCP connection.
func newPeer(t *testing.T) (client net.Conn, peer net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	connector := network.NewConnector(network.NewConnectorOptions{Transport: network.TransportTCP})
	client, err = connector.Dial(context.Background(), endpoint.Endpoint{Host: "127.0.0.1", Port: uint16(port)})
	require.NoError(t, err)

	peer, ok := <-accepted
	require.True(t, ok)

	t.Cleanup(func() {
		client.Close()
		peer.Close()
	})
	return client, peer
}

// readAll collects everything the peer receives until the client closes.
func readAll(peer net.Conn) <-chan string {
	received := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(peer)
		received <- string(b)
	}()
	return received
}

func TestSession_Outbound(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "single line",
			input: "hello\n/quit\n",
			want:  "hello\n",
		},
		{
			name:  "lines are sent verbatim once",
			input: "hello\n  spaced  out  \nhello\n/quit\n",
			want:  "hello\n  spaced  out  \nhello\n",
		},
		{
			name:  "empty lines are never sent",
			input: "\n   \n\t\nafter\n/quit\n",
			want:  "after\n",
		},
		{
			name:  "exit token is not sent",
			input: "/quit\nnever\n",
			want:  "",
		},
		{
			name:  "exit token surrounded by whitespace",
			input: "first\n  /quit \nnever\n",
			want:  "first\n",
		},
		{
			name:  "exit token must be the whole line",
			input: "/quit now\n/quit\n",
			want:  "/quit now\n",
		},
		{
			name:  "carriage returns are stripped",
			input: "windows\r\n/quit\r\n",
			want:  "windows\n",
		},
		{
			name:  "end of input ends the session",
			input: "one\ntwo",
			want:  "one\ntwo\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, peer := newPeer(t)
			received := readAll(peer)
			h := newHarness(t, client, strings.NewReader(tt.input))

			err := waitRun(t, h.run())
			require.NoError(t, err)

			select {
			case got := <-received:
				assert.Equal(t, tt.want, got)
			case <-time.After(waitFor):
				t.Fatal("peer did not see the connection close")
			}
			assert.False(t, h.session.Running())
			assert.Empty(t, h.exits)
			assert.NotContains(t, h.out.String(), "Disconnected")
		})
	}
}

func TestSession_EchoRoundTrip(t *testing.T) {
	client, peer := newPeer(t)
	go func() {
		reader := bufio.NewReader(peer)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if _, err := io.WriteString(peer, line); err != nil {
				return
			}
		}
	}()

	inR, inW := io.Pipe()
	defer inW.Close()
	h := newHarness(t, client, inR)
	done := h.run()

	_, err := io.WriteString(inW, "hello\n")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), "\ruser: hello\nYou: ")
	}, waitFor, 10*time.Millisecond)

	_, err = io.WriteString(inW, "/quit\n")
	require.NoError(t, err)
	require.NoError(t, waitRun(t, done))
	assert.Empty(t, h.exits)
}

func TestSession_PeerDisconnect(t *testing.T) {
	client, peer := newPeer(t)
	counting := &countingConn{Conn: client}

	inR, inW := io.Pipe()
	h := newHarness(t, counting, inR)
	done := h.run()

	_, err := io.WriteString(peer, "last words")
	require.NoError(t, err)
	require.NoError(t, peer.Close())

	select {
	case code := <-h.exits:
		assert.Equal(t, ExitCodeDisconnected, code)
	case <-time.After(waitFor):
		t.Fatal("peer disconnect was not detected")
	}

	assert.Contains(t, h.out.String(), "user: last words")
	assert.Contains(t, h.out.String(), "Disconnected from server.")
	assert.False(t, h.session.Running())

	// the process would have exited here; release the blocked operator read
	inW.Close()
	require.NoError(t, waitRun(t, done))
	assert.Equal(t, int32(1), counting.closes.Load())
	assert.Empty(t, h.exits)
}

func TestSession_WriteFailure(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()
	counting := &countingConn{Conn: &failingConn{Conn: local}}

	h := newHarness(t, counting, strings.NewReader("hello\nnever\n"))
	err := waitRun(t, h.run())

	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.EqualError(t, writeErr.Err, "broken pipe")
	assert.Contains(t, h.errOut.String(), "Error sending message: broken pipe")
	assert.False(t, h.session.Running())
	assert.Equal(t, int32(1), counting.closes.Load())
	// the listener ends with the close instead of reporting a disconnect
	assert.Empty(t, h.exits)
	assert.NotContains(t, h.out.String(), "Disconnected")
}

func TestSession_ShutdownClosesOnce(t *testing.T) {
	client, _ := newPeer(t)
	counting := &countingConn{Conn: client}
	h := newHarness(t, counting, strings.NewReader(""))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.session.Shutdown()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), counting.closes.Load())
	assert.False(t, h.session.Running())
}

func TestSession_HandleInterrupts(t *testing.T) {
	client, peer := newPeer(t)
	counting := &countingConn{Conn: client}
	received := readAll(peer)

	inR, inW := io.Pipe()
	h := newHarness(t, counting, inR)
	done := h.run()

	signals := make(chan os.Signal, 2)
	signals <- os.Interrupt
	signals <- syscall.SIGTERM

	h.session.HandleInterrupts(signals)
	// a second interrupt only finds the session already stopped
	h.session.HandleInterrupts(signals)

	assert.Equal(t, ExitCodeInterrupted, <-h.exits)
	assert.Equal(t, ExitCodeInterrupted, <-h.exits)
	assert.False(t, h.session.Running())
	assert.Equal(t, int32(1), counting.closes.Load())

	select {
	case got := <-received:
		assert.Empty(t, got)
	case <-time.After(waitFor):
		t.Fatal("peer did not see the connection close")
	}

	inW.Close()
	require.NoError(t, waitRun(t, done))
	assert.Equal(t, int32(1), counting.closes.Load())
	assert.NotContains(t, h.out.String(), "Disconnected")
}

func TestSession_HandleInterruptsClosedChannel(t *testing.T) {
	client, _ := newPeer(t)
	h := newHarness(t, client, strings.NewReader(""))

	signals := make(chan os.Signal)
	close(signals)
	h.session.HandleInterrupts(signals)

	assert.True(t, h.session.Running())
	assert.Empty(t, h.exits)
}

func TestNewSession_Defaults(t *testing.T) {
	client, _ := newPeer(t)
	s := NewSession(NewSessionOptions{Conn: client, Input: strings.NewReader("")})

	assert.Equal(t, DefaultExitToken, s.exitToken)
	assert.NotNil(t, s.exit)
	assert.NotEmpty(t, s.ID())
	assert.True(t, s.Running())
}
