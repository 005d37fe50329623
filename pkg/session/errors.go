package session

import "fmt"

// WriteError is returned by Run when an operator line could not be sent.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write message to connection: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
