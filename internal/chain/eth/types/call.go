package ethtypes

import (
	"encoding/json"
	"math/big"

	"github.com/mrz1836/seqeth/internal/chain/eth/hexutil"
)

// ContractCall carries the parameters of eth_call and eth_estimateGas.
// Nil fields are omitted from the request object.
type ContractCall struct {
	From     *Address
	To       *Address
	Gas      *uint64
	GasPrice *big.Int
	Value    *big.Int
	Data     UnsizedData
}

type contractCallJSON struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
	Value    string `json:"value,omitempty"`
	Data     string `json:"data,omitempty"`
}

// MarshalJSON implements json.Marshaler with hex-encoded fields.
func (c ContractCall) MarshalJSON() ([]byte, error) {
	var out contractCallJSON
	if c.From != nil {
		out.From = c.From.Hex()
	}
	if c.To != nil {
		out.To = c.To.Hex()
	}
	if c.Gas != nil {
		out.Gas = hexutil.EncodeUint64Quantity(*c.Gas)
	}
	if c.GasPrice != nil {
		out.GasPrice = hexutil.EncodeBigQuantity(c.GasPrice)
	}
	if c.Value != nil {
		out.Value = hexutil.EncodeBigQuantity(c.Value)
	}
	if len(c.Data) > 0 {
		out.Data = c.Data.Hex()
	}
	return json.Marshal(out)
}
