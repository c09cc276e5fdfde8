package server

import (
	"net"
	"strconv"
)

// PortChecker reports whether host:port can be bound right now. A nil error means
// the port is free.
type PortChecker func(host string, port int) error

// SelectPort checks every candidate in order and returns the last one that
// is free. It returns ErrPortExhaustion when none is.
func SelectPort(host string, candidates []int, check PortChecker) (int, error) {
	if check == nil {
		check = CheckPort
	}

	selected := -1
	for _, port := range candidates {
		if err := check(host, port); err != nil {
			continue
		}
		selected = port
	}

	if selected < 0 {
		return 0, ErrPortExhaustion
	}
	return selected, nil
}

// CheckPort attempts to listen on host:port and closes the listener before
// returning. The result is advisory: another process may take the port
// between the check and the real bind.
func CheckPort(host string, port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return &PortUnavailableError{Host: host, Port: port, Err: err}
	}
	return ln.Close()
}
