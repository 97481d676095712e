package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptRoundTrip(t *testing.T) {
	c, err := NewCipher("secret-key")
	require.NoError(t, err)

	sealed, err := c.Encrypt("hello world")
	require.NoError(t, err)
	assert.NotEqual(t, "hello world", sealed)

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hello world", plain)
}

func TestEncryptUniqueNonces(t *testing.T) {
	c, err := NewCipher("secret-key")
	require.NoError(t, err)

	a, err := c.Encrypt("same content")
	require.NoError(t, err)
	b, err := c.Encrypt("same content")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	c1, err := NewCipher("key-one")
	require.NoError(t, err)
	c2, err := NewCipher("key-two")
	require.NoError(t, err)

	sealed, err := c1.Encrypt("hello")
	require.NoError(t, err)
	_, err = c2.Decrypt(sealed)
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	c, err := NewCipher("secret-key")
	require.NoError(t, err)

	_, err = c.Decrypt("not base64!!")
	assert.Error(t, err)

	_, err = c.Decrypt("cGxhaW50ZXh0")
	assert.Error(t, err)
}

func TestNewCipherRequiresSecret(t *testing.T) {
	_, err := NewCipher("")
	assert.Error(t, err)
}
