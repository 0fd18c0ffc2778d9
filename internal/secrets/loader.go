// Package secrets resolves sensitive values (the bot token, the Gemini API
// key, the database DSN) from either an inline config value or a file
// reference, the file taking precedence.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source names a secret and where it may come from.
type Source struct {
	// Name appears in error messages.
	Name string
	// Value is an inline secret from configuration or flags.
	Value string
	// File points at a file holding the secret. When set it wins over Value.
	File string
}

// Load resolves the secret and trims surrounding whitespace. It fails with an
// error naming the secret when nothing usable is configured.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	value := src.Value
	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		value = string(data)
	}

	secret := strings.TrimSpace(value)
	if secret == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}
	return secret, nil
}
