package session

import (
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cbodonnell/chatline/pkg/console"
	"github.com/cbodonnell/chatline/pkg/log"
	"github.com/google/uuid"
)

const (
	// DefaultExitToken ends the session locally and is never sent to the peer.
	DefaultExitToken = "/quit"

	// ExitCodeInterrupted is used when an interrupt signal ends the process.
	ExitCodeInterrupted = 0
	// ExitCodeDisconnected is used when the peer closes the connection.
	ExitCodeDisconnected = 1
)

// Session is one duplex chat session over a single connection.
//
// The inbound listener reads from conn on its own goroutine while Run writes
// operator lines to it. The two loops only share the running flag and the
// connection; closing the connection is left to Shutdown.
type Session struct {
	id        uuid.UUID
	conn      net.Conn
	input     io.Reader
	console   *console.Console
	exitToken string
	exit      func(code int)

	running   atomic.Bool
	closeOnce sync.Once
	listening sync.WaitGroup
}

type NewSessionOptions struct {
	// Conn is the connection established by the connector.
	Conn net.Conn
	// Input is the operator's line source, usually os.Stdin.
	Input io.Reader
	// Console renders the chat display.
	Console *console.Console
	// ExitToken defaults to DefaultExitToken.
	ExitToken string
	// Exit terminates the process. Defaults to os.Exit.
	Exit func(code int)
}

func NewSession(opts NewSessionOptions) *Session {
	exitToken := opts.ExitToken
	if exitToken == "" {
		exitToken = DefaultExitToken
	}
	exit := opts.Exit
	if exit == nil {
		exit = os.Exit
	}

	s := &Session{
		id:        uuid.New(),
		conn:      opts.Conn,
		input:     opts.Input,
		console:   opts.Console,
		exitToken: exitToken,
		exit:      exit,
	}
	s.running.Store(true)
	return s
}

func (s *Session) ID() string {
	return s.id.String()
}

// Running reports whether the session has not been stopped yet.
func (s *Session) Running() bool {
	return s.running.Load()
}

// Run starts the inbound listener and runs the outbound loop on the calling
// goroutine until the operator quits, input ends or a write fails.
// The connection is closed and the listener has returned when Run returns.
func (s *Session) Run() error {
	log.Info("Session %s started with %s", s.id, s.conn.RemoteAddr())

	s.listening.Add(1)
	go s.listen()

	err := s.outbound()

	s.Shutdown()
	s.listening.Wait()

	log.Info("Session %s ended", s.id)
	return err
}

// Shutdown stops the session and closes the connection.
// It is safe to call from any goroutine any number of times; the connection
// is closed exactly once.
func (s *Session) Shutdown() {
	s.running.Store(false)
	s.closeOnce.Do(func() {
		log.Debug("Session %s closing connection to %s", s.id, s.conn.RemoteAddr())
		if err := s.conn.Close(); err != nil {
			log.Warn("Session %s failed to close connection: %v", s.id, err)
		}
	})
}
