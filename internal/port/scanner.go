// Package port implements host port availability checks for the published
// service ports.
//
// Both published ports (web UI and SSH) are fixed by configuration rather
// than allocated dynamically, so the only question worth asking is whether
// they are currently bound. A bound port is not necessarily a problem: it
// may be the service itself, already running, about to be adopted. The
// check is therefore diagnostic, not a gate.
package port

import (
	"fmt"
	"net"
)

// Scanner checks whether specific TCP ports are free on the host machine.
//
// It asks the operating system's network stack directly via net.Listen,
// which is more reliable than parsing /proc/net/* or shelling out to
// `lsof` or `ss`, both of which may need elevated permissions.
//
// The struct is stateless; it exists (rather than bare functions) so a
// bind address or timeout can be added later without breaking the API,
// and so the Scanner is injectable as a dependency in tests.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsAvailable checks whether a single TCP port is free on the host.
//
// It attempts net.Listen("tcp", ":port"); a successful bind means the
// port is available and the listener is closed immediately. Binding to
// all interfaces (":port" rather than "127.0.0.1:port") matters because
// Docker publishes ports on 0.0.0.0, so the same address space must be
// checked to avoid false positives.
func (s *Scanner) IsAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}

// InUse returns the subset of the given ports that are currently bound.
// Order follows the input. Used by diagnostics to flag possible conflicts
// with the published service ports.
func (s *Scanner) InUse(ports []int) []int {
	var used []int
	for _, p := range ports {
		if !s.IsAvailable(p) {
			used = append(used, p)
		}
	}
	return used
}
