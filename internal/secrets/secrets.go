// Package secrets resolves credentials given in the configuration either as
// ${VAR} references or as paths to secret files (Docker and Kubernetes).
// Secret values are never logged.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/halias/halias-go/internal/errors"
	"github.com/halias/halias-go/internal/logger"
)

// maxSecretFileSize limits secret file reads; secrets are passwords and DSNs
const maxSecretFileSize = 64 * 1024

// ExpandString replaces ${VAR} and ${VAR:-default} references with the
// environment. A reference to an unset variable without a default is an error.
func ExpandString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing environment variable(s): %s", strings.Join(missing, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// ReadFile returns the contents of a secret file without trailing newlines.
// Files readable by group or others are accepted with a warning.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", secretError(errors.NewStd("secret file path is empty"), path)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return "", secretError(err, path)
	}
	if !info.Mode().IsRegular() {
		return "", secretError(errors.NewStd("secret path is not a regular file"), path)
	}
	if info.Size() > maxSecretFileSize {
		return "", secretError(errors.NewStd("secret file too large"), path)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Global().Module("secrets").Warn("secret file is readable by group or others",
			logger.String("path", path),
			logger.String("mode", perm.String()))
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return "", secretError(err, path)
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", secretError(errors.NewStd("secret file is empty"), path)
	}
	return secret, nil
}

// Resolve returns the secret from filePath when set, otherwise value with
// environment references expanded. Both empty resolves to "".
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return ExpandString(value)
}

func secretError(err error, path string) error {
	return errors.New(err).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		Context("operation", "read-secret-file").
		FileContext(path, 0).
		Build()
}
