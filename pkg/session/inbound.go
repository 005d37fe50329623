package session

import (
	"bufio"
	"strings"

	"github.com/cbodonnell/chatline/pkg/log"
	"github.com/cbodonnell/chatline/pkg/network"
)

// listen renders every line received from the peer until a read fails.
func (s *Session) listen() {
	defer s.listening.Done()

	reader := bufio.NewReader(s.conn)
	for {
		line, err := reader.ReadString('\n')
		if !s.running.Load() {
			log.Trace("Session %s inbound listener stopped", s.id)
			return
		}
		// a partial last line is still shown before the disconnect
		if err == nil || line != "" {
			s.console.Incoming(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			s.handleReadError(err)
			return
		}
	}
}

func (s *Session) handleReadError(err error) {
	reason := network.ClassifyReadError(err)
	if !s.running.Load() {
		log.Debug("Session %s inbound listener stopped: %v", s.id, reason)
		return
	}

	log.Warn("Session %s lost connection to %s: %v", s.id, s.conn.RemoteAddr(), reason)
	s.console.Disconnected()
	s.Shutdown()
	s.exit(ExitCodeDisconnected)
}
