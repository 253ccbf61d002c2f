package conf

import (
	"os"
	"path/filepath"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml:
// the working directory, then the user's config directory.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "halias"))
	} else if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "halias"))
	}

	return paths
}

// FindConfigFile returns the first config.yaml found on the default paths,
// or an empty string.
func FindConfigFile() string {
	for _, dir := range GetDefaultConfigPaths() {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
