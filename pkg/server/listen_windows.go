package server

import (
	"net"

	winio "github.com/Microsoft/go-winio"
)

// listenNamedPipe serves on a Windows named pipe, e.g. npipe://\\.\pipe\itemd.
func listenNamedPipe(path string) (net.Listener, error) {
	return winio.ListenPipe(path, &winio.PipeConfig{MessageMode: false})
}
