package paths

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns the user's config directory for itemd.
//
// If the home directory cannot be determined, it falls back to a directory
// under the system temporary directory.
func GetConfigDir() string {
	if dir := os.Getenv("ITEMD_CONFIG_DIR"); dir != "" {
		return filepath.Clean(dir)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".itemd-config"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".config", "itemd"))
}

// GetDataDir returns the user's data directory for itemd (default item
// store, debug logs).
func GetDataDir() string {
	if dir := os.Getenv("ITEMD_DATA_DIR"); dir != "" {
		return filepath.Clean(dir)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".itemd"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".itemd"))
}
