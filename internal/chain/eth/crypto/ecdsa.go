package ethcrypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/mrz1836/seqeth/internal/chain/eth/rlp"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// SignatureLength is the size of an [R || S || V] signature.
const SignatureLength = 65

// compactRecoveryBase is the header offset used by SignCompact for uncompressed keys.
const compactRecoveryBase = 27

// ValidatePrivateKey checks that key is a scalar in [1, n-1].
func ValidatePrivateKey(key ethtypes.PrivateKey) error {
	_, err := toSecpKey(key)
	return err
}

func toSecpKey(key ethtypes.PrivateKey) (*secp256k1.PrivateKey, error) {
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(key[:]); overflow {
		return nil, seqerr.New(seqerr.KindInvalidKey, "private key is not below the curve order")
	}
	if scalar.IsZero() {
		return nil, seqerr.New(seqerr.KindInvalidKey, "private key is zero")
	}
	return secp256k1.NewPrivateKey(&scalar), nil
}

// GetPublicKey derives the public key for a private key.
func GetPublicKey(key ethtypes.PrivateKey) (ethtypes.PublicKey, error) {
	priv, err := toSecpKey(key)
	if err != nil {
		return ethtypes.PublicKey{}, err
	}
	defer priv.Zero()
	return ethtypes.PublicKeyFromBytes(priv.PubKey().SerializeUncompressed())
}

// GetAddress derives the address of a public key: the low 20 bytes of
// Keccak-256 over the 64 coordinate bytes.
func GetAddress(pub ethtypes.PublicKey) ethtypes.Address {
	var addr ethtypes.Address
	hash := Keccak256(pub[:])
	copy(addr[:], hash[12:])
	return addr
}

// PrivateKeyToAddress derives the address controlled by a private key.
func PrivateKeyToAddress(key ethtypes.PrivateKey) (ethtypes.Address, error) {
	pub, err := GetPublicKey(key)
	if err != nil {
		return ethtypes.Address{}, err
	}
	return GetAddress(pub), nil
}

// Sign signs a 32-byte digest and returns [R || S || V] with V in {0, 1}.
// Nonces follow RFC 6979, so the same digest and key always yield the
// same signature.
func Sign(hash ethtypes.Hash256, key ethtypes.PrivateKey) ([]byte, error) {
	priv, err := toSecpKey(key)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	// SignCompact returns [V || R || S] where V is recovery ID + 27
	compact := ecdsa.SignCompact(priv, hash[:], false)
	if len(compact) != SignatureLength {
		return nil, seqerr.New(seqerr.KindInvalidKey, "unexpected signature length")
	}

	sig := make([]byte, SignatureLength)
	copy(sig[0:64], compact[1:65])
	sig[64] = compact[0] - compactRecoveryBase
	return sig, nil
}

// RecoverPublicKey returns the public key that produced sig over hash.
func RecoverPublicKey(hash ethtypes.Hash256, sig []byte) (ethtypes.PublicKey, error) {
	if len(sig) != SignatureLength {
		return ethtypes.PublicKey{}, seqerr.Newf(seqerr.KindInvalidKey, "signature must be %d bytes, got %d", SignatureLength, len(sig))
	}
	if sig[64] > 1 {
		return ethtypes.PublicKey{}, seqerr.Newf(seqerr.KindInvalidKey, "invalid recovery id %d", sig[64])
	}

	compact := make([]byte, SignatureLength)
	compact[0] = sig[64] + compactRecoveryBase
	copy(compact[1:], sig[0:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return ethtypes.PublicKey{}, seqerr.WrapAs(seqerr.KindInvalidKey, err, "signature recovery failed")
	}
	return ethtypes.PublicKeyFromBytes(pub.SerializeUncompressed())
}

// ContractAddress returns the address of a contract created by sender
// with the given account nonce: low20(Keccak256(RLP([sender, nonce]))).
func ContractAddress(sender ethtypes.Address, nonce uint64) ethtypes.Address {
	enc := rlp.EncodeItem(rlp.List(rlp.String(sender[:]), rlp.Uint(nonce)))
	var addr ethtypes.Address
	copy(addr[:], Keccak256(enc)[12:])
	return addr
}
