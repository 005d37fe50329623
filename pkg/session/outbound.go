package session

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cbodonnell/chatline/pkg/log"
)

// MaxInputLineSize bounds a single operator line.
const MaxInputLineSize = 1 << 20

// outbound prompts for operator lines and writes them to the peer.
func (s *Session) outbound() error {
	scanner := bufio.NewScanner(s.input)
	scanner.Buffer(make([]byte, 0, 4096), MaxInputLineSize)

	for s.running.Load() {
		s.console.Prompt()

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				s.console.Error("Error reading input: %v", err)
				return fmt.Errorf("failed to read operator input: %w", err)
			}
			log.Debug("Session %s reached end of operator input", s.id)
			return nil
		}

		line := strings.TrimSuffix(scanner.Text(), "\r")
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if text == s.exitToken {
			log.Debug("Session %s received exit command", s.id)
			return nil
		}

		if !s.running.Load() {
			return nil
		}
		if _, err := io.WriteString(s.conn, line+"\n"); err != nil {
			s.console.Error("Error sending message: %v", err)
			return &WriteError{Err: err}
		}
		log.Trace("Session %s sent %d bytes", s.id, len(line)+1)
	}

	return nil
}
