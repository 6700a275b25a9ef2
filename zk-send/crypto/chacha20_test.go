package crypto

import (
	crand "crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Encrypt(t *testing.T) {
	m := []byte("hello")

	sharedSecret := make([]byte, 32)
	n, err := crand.Read(sharedSecret)
	require.NoError(t, err)
	require.Equal(t, 32, n)

	saplingKDF, err := SaplingKDF(sharedSecret, KDFOutputLen)
	require.NoError(t, err)
	require.Equal(t, 44, len(saplingKDF))

	encKey := saplingKDF[:32]
	nonce := saplingKDF[32:44]

	enc, err := EncryptNote(encKey, nonce, m, []byte("adata"))
	require.NoError(t, err)

	dec, err := DecryptNote(encKey, nonce, enc, []byte("adata"))
	require.NoError(t, err)
	require.Equal(t, m, dec)

	// associated data is authenticated
	_, err = DecryptNote(encKey, nonce, enc, []byte("other"))
	require.ErrorContains(t, err, "failed to decrypt note")
}

func TestSealWithSecret(t *testing.T) {
	secret := make([]byte, 32)
	_, _ = crand.Read(secret)

	enc, err := SealWithSecret(secret, []byte("plaintext"), nil)
	require.NoError(t, err)

	dec, err := OpenWithSecret(secret, enc, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("plaintext"), dec)

	secret[0] ^= 0x01
	_, err = OpenWithSecret(secret, enc, nil)
	require.Error(t, err)

	_, err = SealWithSecret(secret[:16], []byte("plaintext"), nil)
	require.ErrorContains(t, err, "sharedSecret must be 32 bytes")
}
