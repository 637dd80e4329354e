package crypto

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Params{KDF: PBKDF2, Cost: 1000}

func newTestCipher(t *testing.T, password string) *Cipher {
	t.Helper()
	c, err := NewCipher([]byte(password), testParams)
	require.NoError(t, err)
	t.Cleanup(c.Destroy)
	return c
}

func TestSealOpenRoundTrip(t *testing.T) {
	c := newTestCipher(t, "hunter2")

	for _, plaintext := range [][]byte{
		{},
		[]byte("value1"),
		{0xff, 0xfe, 0x00, 0x01},
	} {
		blob, err := c.Seal(plaintext)
		require.NoError(t, err)

		got, err := c.Open(blob)
		require.NoError(t, err)
		assert.Equal(t, len(plaintext), len(got))
		assert.True(t, ConstantTimeCompare(plaintext, got))
	}
}

func TestSealUsesFreshNonce(t *testing.T) {
	c := newTestCipher(t, "pw")

	a, err := c.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := c.Seal([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpenWrongPassword(t *testing.T) {
	blob, err := newTestCipher(t, "right").Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = newTestCipher(t, "wrong").Open(blob)
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestOpenAcrossCiphers(t *testing.T) {
	// Different salts per cipher, same password.
	blob, err := newTestCipher(t, "pw").Seal([]byte("secret"))
	require.NoError(t, err)

	got, err := newTestCipher(t, "pw").Open(blob)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(got))
}

func TestOpenTampered(t *testing.T) {
	c := newTestCipher(t, "pw")
	blob, err := c.Seal([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset int
	}{
		{"salt", headerSize - 1},
		{"nonce", headerSize},
		{"body", len(blob) - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := append([]byte(nil), blob...)
			tampered[tt.offset] ^= 0x01

			_, err := c.Open(tampered)
			assert.ErrorIs(t, err, ErrAuthFailed)
		})
	}
}

func TestOpenMalformed(t *testing.T) {
	c := newTestCipher(t, "pw")

	_, err := c.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	blob, err := c.Seal([]byte("secret"))
	require.NoError(t, err)
	blob[0] = 'X'
	_, err = c.Open(blob)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestOpenUnknownKDF(t *testing.T) {
	c := newTestCipher(t, "pw")
	blob, err := c.Seal([]byte("secret"))
	require.NoError(t, err)

	blob[len(magic)+1] = 9
	_, err = c.Open(blob)
	assert.ErrorIs(t, err, ErrUnknownKDF)
}

func TestArgon2idRoundTrip(t *testing.T) {
	sealer, err := NewCipher([]byte("pw"), Params{KDF: Argon2id, Cost: 1})
	require.NoError(t, err)
	defer sealer.Destroy()

	blob, err := sealer.Seal([]byte("secret"))
	require.NoError(t, err)

	// A PBKDF2 cipher still opens blobs whose header names Argon2id.
	got, err := newTestCipher(t, "pw").Open(blob)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(got))
}

func TestInspect(t *testing.T) {
	blob, err := newTestCipher(t, "pw").Seal([]byte("secret"))
	require.NoError(t, err)

	params, err := Inspect(blob)
	require.NoError(t, err)
	assert.Equal(t, testParams, params)

	_, err = Inspect(blob[:10])
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestHeaderLayout(t *testing.T) {
	plaintext := []byte("secret")
	blob, err := newTestCipher(t, "pw").Seal(plaintext)
	require.NoError(t, err)

	require.Len(t, blob, headerSize+NonceSize+len(plaintext)+TagSize)
	assert.Equal(t, "SVLT", string(blob[:4]))
	assert.Equal(t, byte(formatVersion), blob[4])
	assert.Equal(t, byte(testParams.KDF), blob[5])
}

func TestParseKDF(t *testing.T) {
	tests := []struct {
		in      string
		want    KDF
		wantErr bool
	}{
		{"", PBKDF2, false},
		{"pbkdf2", PBKDF2, false},
		{"argon2id", Argon2id, false},
		{"scrypt", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseKDF(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownKDF)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDestroyClearsKeys(t *testing.T) {
	c, err := NewCipher([]byte("pw"), testParams)
	require.NoError(t, err)

	_, err = c.Seal([]byte("x"))
	require.NoError(t, err)
	require.Len(t, c.keys, 1)

	c.Destroy()
	assert.Empty(t, c.keys)
	assert.Equal(t, []byte{0, 0}, c.password)
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	c := newTestCipher(t, "pw")

	t.Run("missing file is not found", func(t *testing.T) {
		data, found, err := ReadFile(filepath.Join(dir, "nope.vlt"), c)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, data)
	})

	t.Run("write creates parents", func(t *testing.T) {
		path := filepath.Join(dir, "a", "b", "001.vlt")
		require.NoError(t, WriteFile(path, []byte("value"), c))

		data, found, err := ReadFile(path, c)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "value", string(data))
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "index.vlt")
		require.NoError(t, WriteJSON(path, map[string]uint32{"a": 1}, c))

		var got map[string]uint32
		found, err := ReadJSON(path, &got, c)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, map[string]uint32{"a": 1}, got)
	})
}
