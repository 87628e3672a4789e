package eth

import (
	"context"
	"math/big"

	"github.com/mrz1836/seqeth/internal/chain/eth/abi"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// Balance is an account balance in the token's smallest unit.
type Balance struct {
	Address     ethtypes.Address
	Amount      *big.Int
	Unconfirmed *big.Int // pending minus latest; nil when they agree
	Symbol      string
	Decimals    int
	Token       *ethtypes.Address // nil for ether
}

// NativeBalance returns the ether balance of addr at the latest block,
// plus the pending delta when the node reports one.
func (c *Client) NativeBalance(ctx context.Context, addr ethtypes.Address) (*Balance, error) {
	amount, err := c.provider.Balance(ctx, addr, ethtypes.Latest)
	if err != nil {
		return nil, seqerr.Wrap(err, "getting balance")
	}

	bal := &Balance{Address: addr, Amount: amount, Symbol: "ETH", Decimals: 18}

	// pending data is optional
	if pending, err := c.provider.Balance(ctx, addr, ethtypes.Pending); err == nil && pending.Cmp(amount) != 0 {
		bal.Unconfirmed = new(big.Int).Sub(pending, amount)
	}
	return bal, nil
}

//nolint:gochecknoglobals // parsed once
var (
	balanceOfSig = abi.MustParseSignature("balanceOf(address)")
	decimalsSig  = abi.MustParseSignature("decimals()")
	symbolSig    = abi.MustParseSignature("symbol()")
)

// TokenBalance returns the ERC-20 balance of addr for token. Symbol and
// decimals are filled in when the contract exposes them.
func (c *Client) TokenBalance(ctx context.Context, addr, token ethtypes.Address) (*Balance, error) {
	out, err := c.view(ctx, token, balanceOfSig, abi.Address(addr))
	if err != nil {
		return nil, seqerr.Wrap(err, "calling balanceOf")
	}
	values, err := abi.Decode([]abi.Type{abi.Uint256Type}, out)
	if err != nil {
		return nil, err
	}

	tokenAddr := token
	bal := &Balance{Address: addr, Amount: values[0].Int, Token: &tokenAddr}

	if out, err := c.view(ctx, token, symbolSig); err == nil {
		if v, err := abi.Decode([]abi.Type{abi.StringType}, out); err == nil {
			bal.Symbol = string(v[0].Bytes)
		}
	}
	if out, err := c.view(ctx, token, decimalsSig); err == nil {
		if v, err := abi.Decode([]abi.Type{abi.UIntType(8)}, out); err == nil {
			bal.Decimals = int(v[0].Int.Int64())
		}
	}
	return bal, nil
}

func (c *Client) view(ctx context.Context, to ethtypes.Address, sig abi.Signature, args ...abi.Property) (ethtypes.UnsizedData, error) {
	data, err := sig.Encode(args...)
	if err != nil {
		return nil, err
	}
	return c.provider.Call(ctx, ethtypes.ContractCall{To: &to, Data: data}, ethtypes.Latest)
}
