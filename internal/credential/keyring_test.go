package credential

import (
	"errors"
	"fmt"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	noEnv := func(string) (string, bool) { return "", false }

	t.Run("environment wins", func(t *testing.T) {
		env := func(name string) (string, bool) {
			assert.Equal(t, "MEDISTREAM_RELAY_TOKEN", name)
			return "from-env", true
		}
		get := func(string) (string, error) {
			t.Fatal("keyring should not be consulted")
			return "", nil
		}

		v, err := resolve(KeyRelayToken, "cfg", env, get)
		require.NoError(t, err)
		assert.Equal(t, "from-env", v)
	})

	t.Run("keyring value", func(t *testing.T) {
		get := func(string) (string, error) { return "from-ring", nil }

		v, err := resolve(KeyBackendDSN, "cfg", noEnv, get)
		require.NoError(t, err)
		assert.Equal(t, "from-ring", v)
	})

	t.Run("missing entry falls back", func(t *testing.T) {
		get := func(key string) (string, error) {
			return "", fmt.Errorf("getting credential %q: %w", key, keyring.ErrKeyNotFound)
		}

		v, err := resolve(KeyBackendDSN, "cfg", noEnv, get)
		require.NoError(t, err)
		assert.Equal(t, "cfg", v)
	})

	t.Run("keyring failure is reported", func(t *testing.T) {
		boom := errors.New("no backend")
		get := func(string) (string, error) { return "", boom }

		v, err := resolve(KeyBackendDSN, "cfg", noEnv, get)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "cfg", v)
	})
}
