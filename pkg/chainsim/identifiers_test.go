package chainsim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentIDIsCIDv0(t *testing.T) {
	cid := ContentID([]byte(`{"name":"React.js Skill Credential"}`))
	require.True(t, strings.HasPrefix(cid, "Qm"))
	require.Len(t, cid, 46)
	require.True(t, IsContentID(cid))
	require.Equal(t, cid, ContentID([]byte(`{"name":"React.js Skill Credential"}`)))
	require.NotEqual(t, cid, ContentID([]byte(`{}`)))
	require.False(t, IsContentID("not-a-cid"))
}

func TestKeccak256(t *testing.T) {
	// keccak256("") is a well known constant.
	require.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", Keccak256(""))
	hash := Keccak256("polygon-amoy", "0xabc", "QmHash")
	require.Len(t, hash, 66)
	require.NotEqual(t, hash, Keccak256("polygon-amoy", "0xabc", "QmOther"))
}

func TestTokenID(t *testing.T) {
	hash := Keccak256("tx")
	id := TokenID(hash)
	require.NotEmpty(t, id)
	require.Equal(t, id, TokenID(hash))
	require.Equal(t, "1", TokenID("0xzz"))
}
