package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "medistream"

// Well-known credential keys.
const (
	KeyBackendDSN = "backend-dsn"
	KeyRelayToken = "relay-token"
)

// ErrNotFound is wrapped by Get when key is not stored.
var ErrNotFound = keyring.ErrKeyNotFound

// envOverrides maps credential keys to the environment variables that
// take precedence over the keyring.
var envOverrides = map[string]string{
	KeyBackendDSN: "MEDISTREAM_BACKEND_DSN",
	KeyRelayToken: "MEDISTREAM_RELAY_TOKEN",
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/medistream/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("medistream-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Label: "Medistream " + key,
		Data:  []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Resolve returns the credential for key, preferring its environment
// override, then the keyring, then fallback. A missing keyring entry is
// not an error.
func Resolve(key, fallback string) (string, error) {
	return resolve(key, fallback, os.LookupEnv, Get)
}

func resolve(
	key, fallback string,
	lookupEnv func(string) (string, bool),
	get func(string) (string, error),
) (string, error) {
	if env, ok := envOverrides[key]; ok {
		if v, ok := lookupEnv(env); ok && v != "" {
			return v, nil
		}
	}

	v, err := get(key)
	switch {
	case err == nil && v != "":
		return v, nil
	case err == nil, errors.Is(err, keyring.ErrKeyNotFound):
		return fallback, nil
	default:
		return fallback, err
	}
}

// EnvVar returns the environment variable that overrides key, if any.
func EnvVar(key string) string {
	return envOverrides[key]
}

// Keyring exposes Get, Set and Delete as methods so callers can depend
// on an interface.
type Keyring struct{}

func (Keyring) Get(key string) (string, error) { return Get(key) }
func (Keyring) Set(key, value string) error    { return Set(key, value) }
func (Keyring) Delete(key string) error        { return Delete(key) }
