package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestLoadRawKey(t *testing.T) {
	w, err := Load(KeyConfig{RawPrivateKey: "0x" + testKeyHex})
	require.NoError(t, err)
	assert.NotEqual(t, "0x0000000000000000000000000000000000000000", w.Address().Hex())
}

func TestLoadRejectsMissingSource(t *testing.T) {
	_, err := Load(KeyConfig{})
	require.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := Encrypt(testKeyHex, "hunter2")
	require.NoError(t, err)

	got, err := Decrypt(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)

	_, err = Decrypt(blob, "wrong")
	require.Error(t, err)
}
