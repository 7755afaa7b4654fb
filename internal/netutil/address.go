// Package netutil resolves the host:port addresses named in spec.md
// section 6, grounded on _examples/original_source/resolve-address.hpp:
// split on the last colon, no bracketed-IPv6 support.
package netutil

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// AddrResolutionError is the Operator-class error of spec.md section 7:
// a malformed or unresolvable address, reported before any socket is
// opened.
type AddrResolutionError struct {
	Addr   string
	Reason string
}

func (e *AddrResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve address %q: %s", e.Addr, e.Reason)
}

// SplitHostPort splits addr on its last colon, per spec.md section 6:
// "split on the last colon (to support bracket-less IPv6 is not
// supported)".
func SplitHostPort(addr string) (host, port string, err error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return "", "", &AddrResolutionError{Addr: addr, Reason: "missing host:port separator"}
	}
	host = addr[:idx]
	port = addr[idx+1:]
	if port == "" {
		return "", "", &AddrResolutionError{Addr: addr, Reason: "empty port"}
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", "", &AddrResolutionError{Addr: addr, Reason: "port does not parse as uint16"}
	}
	return host, port, nil
}

// ResolveTCPAddr validates addr's shape and resolves it to a TCP
// endpoint.
func ResolveTCPAddr(addr string) (*net.TCPAddr, error) {
	if _, _, err := SplitHostPort(addr); err != nil {
		return nil, err
	}
	resolved, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, &AddrResolutionError{Addr: addr, Reason: err.Error()}
	}
	return resolved, nil
}

// ResolveUDPAddr validates addr's shape and resolves it to a UDP
// endpoint.
func ResolveUDPAddr(addr string) (*net.UDPAddr, error) {
	if _, _, err := SplitHostPort(addr); err != nil {
		return nil, err
	}
	resolved, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, &AddrResolutionError{Addr: addr, Reason: err.Error()}
	}
	return resolved, nil
}
