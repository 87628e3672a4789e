// Package ethcrypto provides the Ethereum hashing, key derivation, and
// signing primitives on top of x/crypto and dcrd's secp256k1.
package ethcrypto

import (
	"golang.org/x/crypto/sha3"

	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
)

// Keccak256 computes the Keccak-256 hash of the concatenated inputs.
// This is the legacy Keccak padding, not NIST SHA3-256.
func Keccak256(data ...[]byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	for _, b := range data {
		hasher.Write(b)
	}
	return hasher.Sum(nil)
}

// Keccak256Hash computes the Keccak-256 hash as a Hash256.
func Keccak256Hash(data ...[]byte) ethtypes.Hash256 {
	var hash ethtypes.Hash256
	copy(hash[:], Keccak256(data...))
	return hash
}
