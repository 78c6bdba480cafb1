package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestRoundTrip(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	require.True(t, svc.Configured())

	sealed, err := svc.EncryptString("125000.50")
	require.NoError(t, err)
	require.NotEqual(t, []byte("125000.50"), sealed)

	plain, err := svc.DecryptString(sealed)
	require.NoError(t, err)
	require.Equal(t, "125000.50", plain)
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	require.False(t, svc.Configured())

	out, err := svc.Encrypt([]byte("plain"))
	require.NoError(t, err)
	require.Equal(t, []byte("plain"), out)
}

func TestRejectsShortKey(t *testing.T) {
	_, err := New("short")
	require.Error(t, err)
}

func TestDecryptTamperedFails(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	sealed, err := svc.EncryptString("secret")
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = svc.Decrypt(sealed)
	require.Error(t, err)
}
