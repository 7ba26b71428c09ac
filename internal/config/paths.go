package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// EnsureDirectories creates the directories the configured paths live in.
func (p PathsConfig) EnsureDirectories() error {
	dirs := []string{p.DataDir}
	if p.RawPath != "" {
		dirs = append(dirs, filepath.Dir(p.RawPath))
	}
	if p.CleanedPath != "" {
		dirs = append(dirs, filepath.Dir(p.CleanedPath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
