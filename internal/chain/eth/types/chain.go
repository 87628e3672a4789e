package ethtypes

import (
	"encoding/json"
)

// Header is the subset of block header fields returned by
// eth_getBlockByNumber and eth_getBlockByHash.
type Header struct {
	ParentHash       Hash256     `json:"parentHash"`
	UncleHash        Hash256     `json:"sha3Uncles"`
	Coinbase         Address     `json:"miner"`
	Root             Hash256     `json:"stateRoot"`
	TxHash           Hash256     `json:"transactionsRoot"`
	ReceiptHash      Hash256     `json:"receiptsRoot"`
	Bloom            UnsizedData `json:"logsBloom"`
	Difficulty       *HexBig     `json:"difficulty"`
	Number           HexUint64   `json:"number"`
	GasLimit         HexUint64   `json:"gasLimit"`
	GasUsed          HexUint64   `json:"gasUsed"`
	Time             HexUint64   `json:"timestamp"`
	Extra            UnsizedData `json:"extraData"`
	MixDigest        Hash256     `json:"mixHash"`
	Nonce            BlockNonce  `json:"nonce"`
	BaseFee          *HexBig     `json:"baseFeePerGas,omitempty"`
	WithdrawalsRoot  *Hash256    `json:"withdrawalsRoot,omitempty"`
	BlobGasUsed      *HexUint64  `json:"blobGasUsed,omitempty"`
	ExcessBlobGas    *HexUint64  `json:"excessBlobGas,omitempty"`
	ParentBeaconRoot *Hash256    `json:"parentBeaconBlockRoot,omitempty"`
}

// Block is a block with its header, hash, and full transaction objects.
// Transactions are kept raw so callers can decode only what they need;
// Raw holds the full result object.
type Block struct {
	Header
	Hash         Hash256           `json:"hash"`
	Size         HexUint64         `json:"size"`
	Transactions []json.RawMessage `json:"transactions"`
	Uncles       []Hash256         `json:"uncles"`
	Raw          json.RawMessage   `json:"-"`
}

// DecodeTransactions decodes the block's transaction list. Blocks fetched
// by hash-only queries carry plain hashes and fail here.
func (b *Block) DecodeTransactions() ([]RPCTransaction, error) {
	out := make([]RPCTransaction, 0, len(b.Transactions))
	for _, raw := range b.Transactions {
		var tx RPCTransaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// RPCTransaction is a transaction as reported by eth_getTransactionByHash.
// BlockHash and BlockNumber are nil while the transaction is pending.
type RPCTransaction struct {
	Hash             Hash256     `json:"hash"`
	Nonce            HexUint64   `json:"nonce"`
	BlockHash        *Hash256    `json:"blockHash"`
	BlockNumber      *HexUint64  `json:"blockNumber"`
	TransactionIndex *HexUint64  `json:"transactionIndex"`
	From             Address     `json:"from"`
	To               *Address    `json:"to"`
	Value            *HexBig     `json:"value"`
	GasPrice         *HexBig     `json:"gasPrice"`
	Gas              HexUint64   `json:"gas"`
	Input            UnsizedData `json:"input"`
	Type             *HexUint64  `json:"type,omitempty"`
	ChainID          *HexBig     `json:"chainId,omitempty"`
	V                *HexBig     `json:"v"`
	R                *HexBig     `json:"r"`
	S                *HexBig     `json:"s"`
}

// Pending reports whether the transaction is not yet mined.
func (t *RPCTransaction) Pending() bool { return t.BlockHash == nil }

// Receipt is the result of eth_getTransactionReceipt. To is nil for
// contract creations and ContractAddress is nil otherwise.
type Receipt struct {
	TransactionHash   Hash256     `json:"transactionHash"`
	TransactionIndex  HexUint64   `json:"transactionIndex"`
	BlockHash         Hash256     `json:"blockHash"`
	BlockNumber       HexUint64   `json:"blockNumber"`
	From              Address     `json:"from"`
	To                *Address    `json:"to"`
	CumulativeGasUsed HexUint64   `json:"cumulativeGasUsed"`
	GasUsed           HexUint64   `json:"gasUsed"`
	EffectiveGasPrice *HexBig     `json:"effectiveGasPrice,omitempty"`
	ContractAddress   *Address    `json:"contractAddress"`
	Logs              []Log       `json:"logs"`
	LogsBloom         UnsizedData `json:"logsBloom"`
	Type              HexUint64   `json:"type"`
	Status            HexUint64   `json:"status"`
}

// Receipt status values.
const (
	ReceiptStatusFailed     HexUint64 = 0
	ReceiptStatusSuccessful HexUint64 = 1
)

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool { return r.Status == ReceiptStatusSuccessful }

// Log is a single event log entry from a receipt.
type Log struct {
	Address          Address     `json:"address"`
	Topics           []Hash256   `json:"topics"`
	Data             UnsizedData `json:"data"`
	BlockNumber      HexUint64   `json:"blockNumber"`
	TransactionHash  Hash256     `json:"transactionHash"`
	TransactionIndex HexUint64   `json:"transactionIndex"`
	BlockHash        Hash256     `json:"blockHash"`
	LogIndex         HexUint64   `json:"logIndex"`
	Removed          bool        `json:"removed"`
}
