package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExecutableDir returns the directory of the running binary, falling back to
// the working directory.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err == nil && strings.TrimSpace(exe) != "" {
		if resolved, resolveErr := filepath.EvalSymlinks(exe); resolveErr == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, wdErr := os.Getwd(); wdErr == nil {
		return wd
	}
	return "."
}

// ResolvePath makes a relative runtime path absolute against the executable
// directory. Absolute paths are cleaned and returned unchanged.
func ResolvePath(raw string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		return ExecutableDir()
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(ExecutableDir(), target))
}

// LogDir returns the absolute log directory, or "" when file logging is off.
func (c *AppConfig) LogDir() string {
	if strings.TrimSpace(c.Log.Dir) == "" {
		return ""
	}
	return ResolvePath(c.Log.Dir)
}
