// Package ethtx builds, signs, and decodes EIP-155 legacy transactions.
package ethtx

import (
	"math/big"

	ethcrypto "github.com/mrz1836/seqeth/internal/chain/eth/crypto"
	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
	"github.com/mrz1836/seqeth/internal/chain/eth/rlp"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// EthTransaction holds unsigned legacy transaction fields. Numeric fields
// are big-endian byte strings of any width; they are minimized on encode.
// A nil To marks a contract creation.
type EthTransaction struct {
	Nonce    ethtypes.UnsizedData
	GasPrice ethtypes.UnsizedData
	GasLimit ethtypes.UnsizedData
	To       *ethtypes.Address
	Value    ethtypes.UnsizedData
	Data     ethtypes.UnsizedData
}

// New builds a transaction from native values. A nil gasPrice or value is zero.
func New(nonce uint64, gasPrice *big.Int, gasLimit uint64, to *ethtypes.Address, value *big.Int, data []byte) EthTransaction {
	var recipient *ethtypes.Address
	if to != nil {
		addr := *to
		recipient = &addr
	}
	return EthTransaction{
		Nonce:    ethtypes.UnsizedFromUint64(nonce),
		GasPrice: ethtypes.UnsizedFromBig(gasPrice),
		GasLimit: ethtypes.UnsizedFromUint64(gasLimit),
		To:       recipient,
		Value:    ethtypes.UnsizedFromBig(value),
		Data:     ethtypes.UnsizedData(data).Clone(),
	}
}

// IsContractCreation reports whether the transaction deploys code.
func (tx EthTransaction) IsContractCreation() bool { return tx.To == nil }

func (tx EthTransaction) baseItems() []rlp.Item {
	to := rlp.String(nil)
	if tx.To != nil {
		to = rlp.String(tx.To[:])
	}
	return []rlp.Item{
		rlp.String(hexutil.TrimLeadingZeros(tx.Nonce)),
		rlp.String(hexutil.TrimLeadingZeros(tx.GasPrice)),
		rlp.String(hexutil.TrimLeadingZeros(tx.GasLimit)),
		to,
		rlp.String(hexutil.TrimLeadingZeros(tx.Value)),
		rlp.String(tx.Data),
	}
}

// SigningPayload returns RLP([nonce, gasPrice, gasLimit, to, value, data, chainId, 0, 0]).
func (tx EthTransaction) SigningPayload(chainID *big.Int) []byte {
	items := append(tx.baseItems(), rlp.Big(chainID), rlp.Uint(0), rlp.Uint(0))
	return rlp.EncodeItem(rlp.List(items...))
}

// SigningHash returns the Keccak-256 digest of the signing payload.
func (tx EthTransaction) SigningHash(chainID *big.Int) ethtypes.Hash256 {
	return ethcrypto.Keccak256Hash(tx.SigningPayload(chainID))
}

// Sign signs the transaction for chainID with EIP-155 replay protection.
func (tx EthTransaction) Sign(key ethtypes.PrivateKey, chainID *big.Int) (SignedTransaction, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return SignedTransaction{}, seqerr.New(seqerr.KindEncodingError, "chain id must be positive")
	}

	sig, err := ethcrypto.Sign(tx.SigningHash(chainID), key)
	if err != nil {
		return SignedTransaction{}, err
	}

	// EIP-155: v = recovery_id + chainID * 2 + 35
	v := new(big.Int).Mul(chainID, big.NewInt(2))
	v.Add(v, big.NewInt(35+int64(sig[64])))

	return SignedTransaction{
		EthTransaction: tx,
		V:              v,
		R:              new(big.Int).SetBytes(sig[0:32]),
		S:              new(big.Int).SetBytes(sig[32:64]),
	}, nil
}

// SignedTransaction is a transaction together with its EIP-155 signature.
type SignedTransaction struct {
	EthTransaction
	V *big.Int
	R *big.Int
	S *big.Int
}

// Bytes returns RLP([nonce, gasPrice, gasLimit, to, value, data, v, r, s]).
func (s SignedTransaction) Bytes() []byte {
	items := append(s.baseItems(), rlp.Big(s.V), rlp.Big(s.R), rlp.Big(s.S))
	return rlp.EncodeItem(rlp.List(items...))
}

// Hex returns the raw transaction with a 0x prefix, ready for eth_sendRawTransaction.
func (s SignedTransaction) Hex() string {
	return hexutil.EncodePrefixed(s.Bytes())
}

// Hash returns the transaction hash.
func (s SignedTransaction) Hash() ethtypes.Hash256 {
	return ethcrypto.Keccak256Hash(s.Bytes())
}

// ChainID recovers the chain id from v. Pre-EIP-155 signatures (v of 27
// or 28) report nil.
func (s SignedTransaction) ChainID() *big.Int {
	if s.V == nil || s.V.Cmp(big.NewInt(35)) < 0 {
		return nil
	}
	id := new(big.Int).Sub(s.V, big.NewInt(35))
	return id.Rsh(id, 1)
}

// Sender recovers the address that signed the transaction.
func (s SignedTransaction) Sender() (ethtypes.Address, error) {
	chainID := s.ChainID()
	if chainID == nil {
		return ethtypes.Address{}, seqerr.New(seqerr.KindInvalidKey, "transaction is not EIP-155 signed")
	}
	recID := new(big.Int).Sub(s.V, big.NewInt(35))
	recID.Sub(recID, new(big.Int).Lsh(chainID, 1))
	if recID.Sign() < 0 || recID.Cmp(big.NewInt(1)) > 0 ||
		s.R == nil || s.S == nil || s.R.BitLen() > 256 || s.S.BitLen() > 256 {
		return ethtypes.Address{}, seqerr.New(seqerr.KindInvalidKey, "malformed signature values")
	}

	sig := make([]byte, ethcrypto.SignatureLength)
	s.R.FillBytes(sig[0:32])
	s.S.FillBytes(sig[32:64])
	sig[64] = byte(recID.Uint64())

	pub, err := ethcrypto.RecoverPublicKey(s.SigningHash(chainID), sig)
	if err != nil {
		return ethtypes.Address{}, err
	}
	return ethcrypto.GetAddress(pub), nil
}

// DecodeSigned parses a raw signed legacy transaction.
func DecodeSigned(raw []byte) (SignedTransaction, error) {
	items, err := rlp.DecodeList(raw)
	if err != nil {
		return SignedTransaction{}, err
	}
	if len(items) != 9 {
		return SignedTransaction{}, seqerr.Newf(seqerr.KindMalformedRLP, "signed transaction must have 9 fields, got %d", len(items))
	}
	for i, it := range items {
		if it.IsList() {
			return SignedTransaction{}, seqerr.Newf(seqerr.KindMalformedRLP, "field %d must be a string", i)
		}
	}

	var to *ethtypes.Address
	switch toBytes := items[3].Bytes(); len(toBytes) {
	case 0:
	case ethtypes.AddressLength:
		addr, _ := ethtypes.AddressFromBytes(toBytes)
		to = &addr
	default:
		return SignedTransaction{}, seqerr.Newf(seqerr.KindMalformedRLP, "recipient must be empty or 20 bytes, got %d", len(toBytes))
	}

	ints := make([]*big.Int, 0, 7)
	for _, idx := range []int{0, 1, 2, 4, 6, 7, 8} {
		n, err := items[idx].BigInt()
		if err != nil {
			return SignedTransaction{}, seqerr.Wrap(err, "field %d", idx)
		}
		ints = append(ints, n)
	}
	if ints[4].BitLen() > 32*8 || ints[5].BitLen() > 32*8 || ints[6].BitLen() > 32*8 {
		return SignedTransaction{}, seqerr.New(seqerr.KindMalformedRLP, "signature value exceeds 32 bytes")
	}

	return SignedTransaction{
		EthTransaction: EthTransaction{
			Nonce:    ethtypes.UnsizedData(items[0].Bytes()),
			GasPrice: ethtypes.UnsizedData(items[1].Bytes()),
			GasLimit: ethtypes.UnsizedData(items[2].Bytes()),
			To:       to,
			Value:    ethtypes.UnsizedData(items[4].Bytes()),
			Data:     ethtypes.UnsizedData(items[5].Bytes()),
		},
		V: ints[4],
		R: ints[5],
		S: ints[6],
	}, nil
}
