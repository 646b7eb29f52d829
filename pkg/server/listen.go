package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Listen opens a listener for addr. Supported forms are unix://<path>,
// npipe://<name> (Windows only), fd://<n> for an inherited descriptor,
// and anything net.Listen accepts for tcp, optionally prefixed by tcp://.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	scheme, rest, found := strings.Cut(addr, "://")
	if !found {
		return listenTCP(ctx, addr)
	}

	switch scheme {
	case "unix":
		return listenUnix(ctx, rest)
	case "npipe":
		return listenNamedPipe(rest)
	case "fd":
		fd, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid file descriptor %q: %w", rest, err)
		}
		return net.FileListener(os.NewFile(uintptr(fd), "itemd-listener"))
	case "tcp":
		return listenTCP(ctx, rest)
	default:
		return nil, fmt.Errorf("unsupported listen address scheme %q", scheme)
	}
}

// listenUnix replaces any stale socket left by a previous run.
func listenUnix(ctx context.Context, path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	var lc net.ListenConfig
	return lc.Listen(ctx, "unix", path)
}

func listenTCP(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", addr)
}
