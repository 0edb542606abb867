// Package env locates the keg workspace on disk.
package env

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the workspace location.
const HomeEnv = "KEG_HOME"

// Workspace layout:
//
//	WorkDir()/
//	  downloads/   # source archives, named by checksum
//	  sources/     # extracted or cloned source trees
//	  receipts/    # <name>.toml per installed formula
//	  .lock        # held while an install runs
func WorkDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".keg"), nil
}

// DownloadsDir returns the download cache, creating it if needed.
func DownloadsDir() (string, error) {
	return subdir("downloads")
}

// SourcesDir returns the directory source trees are unpacked into.
func SourcesDir() (string, error) {
	return subdir("sources")
}

// ReceiptsDir returns the directory install receipts are written to.
func ReceiptsDir() (string, error) {
	return subdir("receipts")
}

func subdir(name string) (string, error) {
	work, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(work, name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
