//go:build windows

package server

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// wsaeAddrInUse is WSAEADDRINUSE
const wsaeAddrInUse = syscall.Errno(10048)

// isAddrInUseError determines whether an error represents an address-in-use condition.
func isAddrInUseError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, wsaeAddrInUse) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if isAddrInUseError(opErr.Err) {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "address already in use") ||
		strings.Contains(errStr, "only one usage of each socket address")
}
