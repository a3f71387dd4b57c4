// Package platform holds the small OS integration pieces the daemon
// needs.
package platform

import (
	"errors"
	"hash/fnv"
	"net"
	"strconv"
)

// Guard ports live outside the ephemeral range and clear of the IPC
// default.
const (
	guardPortMin = 20000
	guardPortMax = 39999
)

// ErrAlreadyRunning indicates another daemon holds the guard port.
var ErrAlreadyRunning = errors.New("instance already running")

// InstanceGuard pins the daemon to a name-derived localhost port for
// the life of the process. The bound socket is the lock; the OS
// releases it even on a crash.
type InstanceGuard struct {
	listener net.Listener
	address  string
}

// AcquireSingleInstance takes the guard port for appName. A bind
// failure means a daemon under the same name got there first.
func AcquireSingleInstance(appName string) (*InstanceGuard, error) {
	address := net.JoinHostPort("127.0.0.1", strconv.Itoa(guardPort(appName)))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, ErrAlreadyRunning
	}
	return &InstanceGuard{listener: listener, address: address}, nil
}

// Release gives the guard port back. Safe on a nil guard.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	return guard.listener.Close()
}

// Address returns the bound address, or "" for a nil guard.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

// guardPort maps a name onto the guard range deterministically, so
// every process of the same app contends for one port.
func guardPort(appName string) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	return guardPortMin + int(hash.Sum32()%uint32(guardPortMax-guardPortMin+1))
}
