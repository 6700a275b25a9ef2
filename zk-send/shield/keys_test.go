package shield

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpendingKeyDerivation(t *testing.T) {
	sk := GenerateSpendingKey()

	acct0, err := NewAccount(sk)
	require.NoError(t, err)
	acct1, err := NewAccount(sk)
	require.NoError(t, err)
	require.Equal(t, acct0, acct1)

	require.NotEqual(t, sk[:], acct0.IncomingViewKey[:])
	require.NotEqual(t, acct0.IncomingViewKey[:], acct0.OutgoingViewKey[:])

	addr, err := acct0.IncomingViewKey.PublicAddress()
	require.NoError(t, err)
	require.Equal(t, acct0.Address, addr)

	other, err := NewAccount(GenerateSpendingKey())
	require.NoError(t, err)
	require.NotEqual(t, acct0.Address, other.Address)
}

func TestSpendingKeyFromMnemonic(t *testing.T) {
	m := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	sk0, err := SpendingKeyFromMnemonic(m, "", DefaultLanguage)
	require.NoError(t, err)
	sk1, err := SpendingKeyFromMnemonic("  abandon abandon abandon abandon abandon abandon\tabandon abandon abandon abandon abandon about ", "", "en")
	require.NoError(t, err)
	require.Equal(t, sk0, sk1)

	sk2, err := SpendingKeyFromMnemonic(m, "secret", DefaultLanguage)
	require.NoError(t, err)
	require.NotEqual(t, sk0, sk2)

	_, err = SpendingKeyFromMnemonic("   ", "", DefaultLanguage)
	require.Error(t, err)
}

func TestSpendingKeyFromMnemonicRejects(t *testing.T) {
	cases := map[string]string{
		"bad checksum": "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
		"unknown word": "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abuot",
		"short":        "abandon about",
	}
	for name, m := range cases {
		_, err := SpendingKeyFromMnemonic(m, "", DefaultLanguage)
		require.ErrorContains(t, err, "invalid mnemonic", name)
	}

	valid := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	// english words are not in the spanish list
	_, err := SpendingKeyFromMnemonic(valid, "", "es")
	require.ErrorContains(t, err, "invalid mnemonic")
	_, err = SpendingKeyFromMnemonic(valid, "", "xx")
	require.ErrorContains(t, err, "unsupported mnemonic language")
}

func TestNewMnemonic(t *testing.T) {
	for _, lang := range []string{"en", "fr"} {
		m, err := NewMnemonic(lang)
		require.NoError(t, err)
		require.Len(t, strings.Fields(m), 24)

		sk, err := SpendingKeyFromMnemonic(m, "", lang)
		require.NoError(t, err)
		require.NotEqual(t, SpendingKey{}, sk)
	}

	_, err := NewMnemonic("xx")
	require.Error(t, err)
	require.Contains(t, Languages(), DefaultLanguage)
}

func TestParseKeys(t *testing.T) {
	sk := GenerateSpendingKey()

	parsed, err := ParseSpendingKey(sk.Hex())
	require.NoError(t, err)
	require.Equal(t, sk, parsed)

	ivk, err := ParseIncomingViewKey(sk.IncomingViewKey().Hex())
	require.NoError(t, err)
	require.Equal(t, sk.IncomingViewKey(), ivk)

	ovk, err := ParseOutgoingViewKey(sk.OutgoingViewKey().Hex())
	require.NoError(t, err)
	require.Equal(t, sk.OutgoingViewKey(), ovk)

	_, err = ParseSpendingKey("zz")
	require.ErrorContains(t, err, "invalid spending key")

	_, err = ParseIncomingViewKey("abcd")
	require.ErrorContains(t, err, "expected 32 bytes, got 2")
}
