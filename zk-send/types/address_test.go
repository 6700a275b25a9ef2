package types

import (
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressCodec(t *testing.T) {
	pubKeyBytes := make([]byte, 32)
	_, _ = crand.Read(pubKeyBytes)

	addr0 := EncodeAddress(pubKeyBytes)
	require.True(t, strings.HasPrefix(addr0, "zs"))

	// wrong prefix
	_addr0 := fmt.Sprintf("cz%s", addr0[2:])
	_, err := DecodeAddress(_addr0)
	require.ErrorContains(t, err, "wrong prefix")

	bzAddr, err := DecodeAddress(addr0)
	require.NoError(t, err)
	require.Equal(t, pubKeyBytes, bzAddr)
}

func TestParseAddress(t *testing.T) {
	var a Address
	_, _ = crand.Read(a[:])

	fromHex, err := ParseAddress(a.Hex())
	require.NoError(t, err)
	require.Equal(t, a, fromHex)

	fromB58, err := ParseAddress(a.Base58())
	require.NoError(t, err)
	require.Equal(t, a, fromB58)

	_, err = ParseAddress("abcd")
	require.ErrorContains(t, err, "wrong address length")

	_, err = ParseAddress("not-hex")
	require.ErrorContains(t, err, "invalid hex address")

	require.Equal(t, strings.ToLower(a.Hex()), a.String())
	require.False(t, a.IsZero())
	require.True(t, Address{}.IsZero())
}

func TestEncryptedNoteJSON(t *testing.T) {
	raw := `{
		"fee": "1",
		"expiration": 10,
		"notesCount": 3,
		"notesEncrypted": [
			"aa",
			{"noteData": "bb", "noteIndex": 7},
			{"noteData": "cc"}
		]
	}`
	var rec TransactionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	require.Len(t, rec.NotesEncrypted, 3)

	require.Equal(t, "aa", rec.NotesEncrypted[0].Data)
	require.Nil(t, rec.NotesEncrypted[0].Index)

	require.Equal(t, "bb", rec.NotesEncrypted[1].Data)
	require.NotNil(t, rec.NotesEncrypted[1].Index)
	require.Equal(t, uint64(7), *rec.NotesEncrypted[1].Index)

	require.Equal(t, "cc", rec.NotesEncrypted[2].Data)
	require.Nil(t, rec.NotesEncrypted[2].Index)
	require.Nil(t, rec.NoteTreeSize)

	bz, err := json.Marshal(rec.NotesEncrypted[1])
	require.NoError(t, err)
	require.JSONEq(t, `{"noteData":"bb","noteIndex":7}`, string(bz))

	bz, err = json.Marshal(rec.NotesEncrypted[0])
	require.NoError(t, err)
	require.Equal(t, `"aa"`, string(bz))

	require.Error(t, json.Unmarshal([]byte(`{"notesEncrypted":[12]}`), &rec))
}
