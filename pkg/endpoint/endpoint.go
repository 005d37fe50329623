package endpoint

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
)

var addressPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]+:[0-9]{1,5}$`)

var (
	// ErrInvalidAddress is returned when an address does not have the form host:port.
	ErrInvalidAddress = errors.New("invalid address format, use <host:port>")
	// ErrPortOutOfRange is returned when the port is not in 1-65535.
	ErrPortOutOfRange = errors.New("port must be between 1 and 65535")
)

// Endpoint identifies the remote peer.
type Endpoint struct {
	Host string
	Port uint16
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// Validate reports whether addr is syntactically a host:port pair.
// It does not resolve the host.
func Validate(addr string) error {
	if !addressPattern.MatchString(addr) {
		return fmt.Errorf("%q: %w", addr, ErrInvalidAddress)
	}
	return nil
}

// Parse validates addr and splits it into an Endpoint.
func Parse(addr string) (Endpoint, error) {
	if err := Validate(addr); err != nil {
		return Endpoint{}, err
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%q: %w", addr, ErrInvalidAddress)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return Endpoint{}, fmt.Errorf("%q: %w", addr, ErrPortOutOfRange)
	}

	return Endpoint{Host: host, Port: uint16(port)}, nil
}
