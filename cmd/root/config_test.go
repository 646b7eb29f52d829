package root

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigShowCommand_Empty(t *testing.T) {
	isolate(t)

	cmd := newConfigCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"show"})

	err := cmd.Execute()
	require.NoError(t, err)

	// Empty config outputs as empty YAML object
	output := buf.String()
	assert.Equal(t, "{}\n", output)
}

func TestConfigShowCommand_WithSettings(t *testing.T) {
	isolate(t)

	configDir := os.Getenv("ITEMD_CONFIG_DIR")
	configContent := `listen: unix:///tmp/itemd.sock
store: /srv/items.json
log:
  max_size: 5MB
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644))

	cmd := newConfigCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"show"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "listen: unix:///tmp/itemd.sock")
	assert.Contains(t, output, "store: /srv/items.json")
	assert.Contains(t, output, "max_size: 5MB")
}

func TestConfigShowCommand_DefaultBehavior(t *testing.T) {
	isolate(t)

	// Running "config" without subcommand should default to "show"
	cmd := newConfigCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	assert.Equal(t, "{}\n", buf.String())
}

func TestConfigPathCommand(t *testing.T) {
	isolate(t)

	cmd := newConfigCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"path"})

	err := cmd.Execute()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(os.Getenv("ITEMD_CONFIG_DIR"), "config.yaml")+"\n", buf.String())
}

func TestConfigPathCommand_Flag(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")

	stdout, _, err := execute(t, "--config", path, "config", "path")
	require.NoError(t, err)

	assert.Equal(t, path+"\n", stdout)
}

func TestConfigShowCommand_MalformedConfig(t *testing.T) {
	isolate(t)

	configDir := os.Getenv("ITEMD_CONFIG_DIR")
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("not: valid: yaml: content"), 0o644))

	cmd := newConfigCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"show"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestConfigSetCommand(t *testing.T) {
	isolate(t)
	storePath := filepath.Join(t.TempDir(), "items.json")

	stdout, _, err := execute(t, "config", "set", "store", storePath)
	require.NoError(t, err)
	assert.Equal(t, "✔ store set to \""+storePath+"\"\n", stdout)

	stdout, _, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "version: v1")
	assert.Contains(t, stdout, "store: "+storePath)

	// The item commands pick up the configured store
	_, _, err = execute(t, "item", "add", "--title", "Bread")
	require.NoError(t, err)
	assert.FileExists(t, storePath)
}

func TestConfigSetCommand_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown key", args: []string{"config", "set", "color", "blue"}, wantErr: `unknown setting "color"`},
		{name: "bad duration", args: []string{"config", "set", "shutdown_timeout", "soon"}, wantErr: "shutdown_timeout"},
		{name: "bad size", args: []string{"config", "set", "log.max_size", "huge"}, wantErr: "log.max_size"},
		{name: "bad boolean", args: []string{"config", "set", "watch", "maybe"}, wantErr: "invalid boolean"},
		{name: "negative backups", args: []string{"config", "set", "log.max_backups", "-1"}, wantErr: "log.max_backups cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			assert.NoFileExists(t, filepath.Join(os.Getenv("ITEMD_CONFIG_DIR"), "config.yaml"))
		})
	}
}
