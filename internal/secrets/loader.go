package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups job-radar credentials in the OS keychain.
const KeyringService = "job-radar"

// Source describes how to load a secret value. Lookups are tried in the order
// File, Keyring, Env, Value; the first non-empty result wins.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// File points to a file containing the secret value.
	File string
	// Env names an environment variable holding the secret.
	Env string
	// Keyring is the account name under KeyringService.
	Keyring string
}

// Load returns the resolved, trimmed secret value from src.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if account := strings.TrimSpace(src.Keyring); account != "" {
		secret, err := keyring.Get(KeyringService, account)
		switch {
		case errors.Is(err, keyring.ErrNotFound):
			// fall through to the remaining sources
		case err != nil:
			return "", fmt.Errorf("reading %s from keyring account %q: %w", name, account, err)
		default:
			if secret = strings.TrimSpace(secret); secret != "" {
				return secret, nil
			}
		}
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
