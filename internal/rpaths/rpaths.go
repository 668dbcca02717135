// Package rpaths resolves Rokit's per-user data directory and the fixed
// layout beneath it, following the env-override-then-home-dir pattern a
// power-hour-style CLI's GlobalDir uses for its own dotfile directory.
package rpaths

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dirs is the fully resolved on-disk layout under the data directory.
type Dirs struct {
	Root        string // $ROKIT_HOME, $ROKIT_CACHE_DIR, or ~/.rokit
	Bin         string // Root/bin
	ToolStorage string // Root/tool-storage
	Cache       string // Root/cache
	TrustFile   string // Root/trust.json
	AuthFile    string // Root/auth.json
}

// Resolve determines Root from $ROKIT_HOME, then $ROKIT_CACHE_DIR, then
// .rokit under the user's home directory, and ensures every directory in
// Dirs exists.
func Resolve() (Dirs, error) {
	root, err := rootDir()
	if err != nil {
		return Dirs{}, err
	}

	d := Dirs{
		Root:        root,
		Bin:         filepath.Join(root, "bin"),
		ToolStorage: filepath.Join(root, "tool-storage"),
		Cache:       filepath.Join(root, "cache"),
		TrustFile:   filepath.Join(root, "trust.json"),
		AuthFile:    filepath.Join(root, "auth.json"),
	}
	for _, dir := range []string{d.Root, d.Bin, d.ToolStorage, d.Cache} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Dirs{}, fmt.Errorf("rpaths: create %s: %w", dir, err)
		}
	}
	return d, nil
}

func rootDir() (string, error) {
	if home := os.Getenv("ROKIT_HOME"); home != "" {
		return home, nil
	}
	if cache := os.Getenv("ROKIT_CACHE_DIR"); cache != "" {
		return cache, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("rpaths: detect user home: %w", err)
	}
	return filepath.Join(home, ".rokit"), nil
}
