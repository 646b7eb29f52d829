package root

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docker/itemd/pkg/item"
	"github.com/docker/itemd/pkg/userconfig"
	"github.com/docker/itemd/pkg/watch"
)

func TestServeCommand(t *testing.T) {
	isolate(t)

	socketPath := filepath.Join(t.TempDir(), "itemd.sock")
	storePath := filepath.Join(t.TempDir(), "items.json")

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var stdout, stderr bytes.Buffer
	errCh := make(chan error, 1)
	go func() {
		errCh <- Execute(ctx, strings.NewReader(""), &stdout, &stderr,
			"serve", "--listen", "unix://"+socketPath, "--store", storePath, "--watch", "--shutdown-timeout", "1s")
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(socketPath)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://_/api/v1/item", strings.NewReader(`{"title":"Milk","price":2.5}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, string(body), `"title":"Milk"`)

	data, err := os.ReadFile(storePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "Milk"`)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}

	assert.Equal(t, "Listening on "+socketPath+"\n", stdout.String())
}

func TestServeCommand_BadListenAddress(t *testing.T) {
	isolate(t)

	_, stderr, err := execute(t, "serve", "--listen", "carrier-pigeon://home", "--store", ":memory:")
	require.Error(t, err)

	assert.Contains(t, stderr, "failed to listen on carrier-pigeon://home")
}

func TestServeSettings_FlagsOverrideConfig(t *testing.T) {
	cfg := &userconfig.Config{
		Listen:          "127.0.0.1:9000",
		Store:           "/srv/items.json",
		Watch:           true,
		ShutdownTimeout: "30s",
	}

	tests := []struct {
		name    string
		flags   serveFlags
		changed []string
		want    serveFlags
	}{
		{
			name: "config only",
			want: serveFlags{listenAddr: "127.0.0.1:9000", storePath: "/srv/items.json", watch: true, shutdownTimeout: 30 * time.Second},
		},
		{
			name:    "watch turned off on the command line",
			flags:   serveFlags{watch: false},
			changed: []string{"watch"},
			want:    serveFlags{listenAddr: "127.0.0.1:9000", storePath: "/srv/items.json", watch: false, shutdownTimeout: 30 * time.Second},
		},
		{
			name:    "every flag set",
			flags:   serveFlags{listenAddr: ":1", storePath: ":memory:", watch: true, shutdownTimeout: time.Second},
			changed: []string{"listen", "store", "watch", "shutdown-timeout"},
			want:    serveFlags{listenAddr: ":1", storePath: ":memory:", watch: true, shutdownTimeout: time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := func(name string) bool { return slices.Contains(tt.changed, name) }

			got, err := tt.flags.resolve(changed, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServeSettings_Defaults(t *testing.T) {
	isolate(t)

	var flags serveFlags
	got, err := flags.resolve(func(string) bool { return false }, &userconfig.Config{})
	require.NoError(t, err)

	assert.Equal(t, userconfig.DefaultListen, got.listenAddr)
	assert.Equal(t, filepath.Join(os.Getenv("ITEMD_DATA_DIR"), "items.json"), got.storePath)
	assert.False(t, got.watch)
	assert.Equal(t, userconfig.DefaultShutdownTimeout, got.shutdownTimeout)
}

func TestLogStoreChanges(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	events := make(chan watch.Event, 2)
	events <- watch.Event{Path: "items.json", Items: []item.Item{{ID: "a", IsComplete: true}, {ID: "b"}}}
	events <- watch.Event{Path: "items.json", Err: errors.New("corrupt")}
	close(events)

	logStoreChanges(t.Context(), events)

	output := logs.String()
	assert.Contains(t, output, `level=INFO msg="Item store changed" summary="items.json: 2 items (1 done, 1 pending)"`)
	assert.Contains(t, output, `level=WARN msg="Item store changed" summary="items.json: corrupt"`)
	assert.NotContains(t, output, "on disk")
}
