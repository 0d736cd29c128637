package config

import (
	"os"
	"path/filepath"
	"strings"
)

// envFileNames are read in order; earlier files win because a value never
// overwrites a variable that is already set.
var envFileNames = []string{".env.local", ".env"}

// loadEnvFiles seeds missing variables (DATABASE_URL, REDIS_URL, the RUN_MODE
// and FETCHER_* toggles) from dotenv files found next to the working directory
// or the executable. Real environment variables always take precedence, so
// Load only calls this when DATABASE_URL is absent.
func loadEnvFiles() {
	for _, dir := range envFileDirs() {
		for _, name := range envFileNames {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			applyEnvFile(data)
		}
	}
}

func envFileDirs() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}

// applyEnvFile parses KEY=VALUE lines. Blank lines, comments, and an optional
// "export " prefix are tolerated; single or double quotes around the value are
// stripped.
func applyEnvFile(data []byte) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		_ = os.Setenv(key, value)
	}
}
