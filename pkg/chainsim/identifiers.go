// Package chainsim derives the synthetic identifiers used by the simulated
// credential chain: IPFS content identifiers and EVM style hashes.
package chainsim

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

const (
	multihashSHA256 = 0x12
	sha256Length    = 0x20

	tokenIDSpace = 1_000_000
)

// ContentID returns a CIDv0 ("Qm...") for the payload: base58 of the sha2-256 multihash.
func ContentID(payload []byte) string {
	digest := sha256.Sum256(payload)
	multihash := make([]byte, 0, 2+len(digest))
	multihash = append(multihash, multihashSHA256, sha256Length)
	multihash = append(multihash, digest[:]...)
	return base58.Encode(multihash)
}

// IsContentID reports whether value decodes to a sha2-256 multihash.
func IsContentID(value string) bool {
	raw, err := base58.Decode(value)
	if err != nil || len(raw) != 2+sha256Length {
		return false
	}
	return raw[0] == multihashSHA256 && raw[1] == sha256Length
}

// Keccak256 hashes the parts joined by "|" and returns the 0x-prefixed hex digest.
func Keccak256(parts ...string) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(strings.Join(parts, "|")))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// TokenID derives a decimal token id from a transaction hash.
func TokenID(txHash string) string {
	raw, err := hex.DecodeString(strings.TrimPrefix(txHash, "0x"))
	if err != nil || len(raw) < 8 {
		return "1"
	}
	n := binary.BigEndian.Uint64(raw[:8])%tokenIDSpace + 1
	return strconv.FormatUint(n, 10)
}
