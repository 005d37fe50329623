package session

import (
	"os"

	"github.com/cbodonnell/chatline/pkg/log"
)

// HandleInterrupts waits for the first signal, closes the connection and
// ends the process. It does not wait for the loops to notice; the outbound
// loop may still be blocked on operator input.
func (s *Session) HandleInterrupts(signals <-chan os.Signal) {
	sig, ok := <-signals
	if !ok {
		return
	}

	log.Info("Session %s received %s, shutting down", s.id, sig)
	s.Shutdown()
	s.exit(ExitCodeInterrupted)
}
