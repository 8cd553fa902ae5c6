package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	km := NewKeyManager(t.TempDir())

	account, err := km.GenerateKeyPair()
	require.NoError(t, err)
	require.NotNil(t, account)

	assert.Len(t, account.PrivateKey, 64)
	assert.NotEmpty(t, account.PublicKey.ToBase58())

	other, err := km.GenerateKeyPair()
	require.NoError(t, err)
	assert.NotEqual(t, account.PublicKey, other.PublicKey)
}

func TestEncryptDecryptPrivateKey(t *testing.T) {
	km := NewKeyManager(t.TempDir())

	account, err := km.GenerateKeyPair()
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		encrypted, err := km.EncryptPrivateKey(account.PrivateKey, "correct horse")
		require.NoError(t, err)
		assert.NotEmpty(t, encrypted)

		decrypted, err := km.DecryptPrivateKey(encrypted, "correct horse")
		require.NoError(t, err)
		assert.Equal(t, []byte(account.PrivateKey), decrypted)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		encrypted, err := km.EncryptPrivateKey(account.PrivateKey, "correct horse")
		require.NoError(t, err)

		_, err = km.DecryptPrivateKey(encrypted, "battery staple")
		assert.Error(t, err)
	})

	t.Run("same key encrypts differently each time", func(t *testing.T) {
		first, err := km.EncryptPrivateKey(account.PrivateKey, "pw")
		require.NoError(t, err)
		second, err := km.EncryptPrivateKey(account.PrivateKey, "pw")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("garbage ciphertext fails", func(t *testing.T) {
		_, err := km.DecryptPrivateKey("not base64!!!", "pw")
		assert.Error(t, err)

		_, err = km.DecryptPrivateKey("c2hvcnQ=", "pw")
		assert.Error(t, err)
	})
}

func TestKeyStoreRoundTrip(t *testing.T) {
	km := NewKeyManager(t.TempDir())

	account, err := km.GenerateKeyPair()
	require.NoError(t, err)
	address := account.PublicKey.ToBase58()

	require.NoError(t, km.SaveKeyStoreEntry(account, "pw"))

	t.Run("load with correct password", func(t *testing.T) {
		loaded, err := km.LoadKeyStoreEntry(address, "pw")
		require.NoError(t, err)
		assert.Equal(t, account.PublicKey, loaded.PublicKey)
		assert.Equal(t, account.PrivateKey, loaded.PrivateKey)
	})

	t.Run("load with wrong password", func(t *testing.T) {
		_, err := km.LoadKeyStoreEntry(address, "wrong")
		assert.Error(t, err)
	})

	t.Run("load unknown address", func(t *testing.T) {
		_, err := km.LoadKeyStoreEntry("missing", "pw")
		assert.Error(t, err)
	})
}
