package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

const (
	PromptText   = "You: "
	SenderPrefix = "user: "
)

// Console renders the chat display. It is shared by the inbound and outbound
// loops, so every write holds the lock for the whole message.
type Console struct {
	out    io.Writer
	errOut io.Writer
	mu     sync.Mutex

	prompt   *color.Color
	incoming *color.Color
	notice   *color.Color
	failure  *color.Color
}

// New creates a console writing chat output to out and errors to errOut.
func New(out, errOut io.Writer) *Console {
	return &Console{
		out:      out,
		errOut:   errOut,
		prompt:   color.New(color.FgGreen),
		incoming: color.New(color.FgCyan),
		notice:   color.New(color.FgYellow),
		failure:  color.New(color.FgRed),
	}
}

// DisableColor turns off escape sequences for this console.
func (c *Console) DisableColor() {
	for _, col := range []*color.Color{c.prompt, c.incoming, c.notice, c.failure} {
		col.DisableColor()
	}
}

// Prompt asks the operator for the next line.
func (c *Console) Prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt.Fprint(c.out, PromptText)
}

// Incoming renders a received line over the pending prompt and prompts again.
func (c *Console) Incoming(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, "\r")
	c.incoming.Fprintln(c.out, SenderPrefix+line)
	c.prompt.Fprint(c.out, PromptText)
}

func (c *Console) Notice(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice.Fprintln(c.out, fmt.Sprintf(format, args...))
}

// Error writes to the error stream.
func (c *Console) Error(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failure.Fprintln(c.errOut, fmt.Sprintf(format, args...))
}

// Disconnected announces a peer-side close on the chat output.
func (c *Console) Disconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, "\r")
	c.failure.Fprintln(c.out, "Disconnected from server.")
}
