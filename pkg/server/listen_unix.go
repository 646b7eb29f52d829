//go:build !windows

package server

import (
	"errors"
	"net"
	"runtime"
)

var errNamedPipeUnsupported = errors.New("named pipes are only supported on windows, not " + runtime.GOOS)

func listenNamedPipe(string) (net.Listener, error) {
	return nil, errNamedPipeUnsupported
}
