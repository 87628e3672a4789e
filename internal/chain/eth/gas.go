package eth

import (
	"context"
	"math/big"

	"github.com/mrz1836/seqeth/internal/chain"
	ethtypes "github.com/mrz1836/seqeth/internal/chain/eth/types"
	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// GasSpeed represents the transaction speed preference.
type GasSpeed string

const (
	// GasSpeedSlow bids 80% of the node's suggested price.
	GasSpeedSlow GasSpeed = "slow"
	// GasSpeedMedium bids the suggested price.
	GasSpeedMedium GasSpeed = "medium"
	// GasSpeedFast bids 120% of the suggested price.
	GasSpeedFast GasSpeed = "fast"

	// GasLimitETHTransfer is the gas used by a plain value transfer.
	GasLimitETHTransfer uint64 = 21000

	slowPercent = 80
	fastPercent = 120
)

// ParseGasSpeed parses a speed name. The empty string means medium.
func ParseGasSpeed(s string) (GasSpeed, error) {
	switch s {
	case "slow":
		return GasSpeedSlow, nil
	case "", "medium":
		return GasSpeedMedium, nil
	case "fast":
		return GasSpeedFast, nil
	default:
		return "", seqerr.WithDetails(
			seqerr.New(seqerr.KindInvalidInput, "invalid gas speed"),
			map[string]string{"speed": s, "allowed": "slow, medium, or fast"},
		)
	}
}

// GasPrices holds the price per gas, in wei, for each speed.
type GasPrices struct {
	Slow   *big.Int
	Medium *big.Int
	Fast   *big.Int
}

// For returns the price for speed. Unknown speeds get the medium price.
func (g *GasPrices) For(speed GasSpeed) *big.Int {
	switch speed {
	case GasSpeedSlow:
		return g.Slow
	case GasSpeedFast:
		return g.Fast
	case GasSpeedMedium:
		return g.Medium
	default:
		return g.Medium
	}
}

// GasEstimate contains gas price and limit for a transaction.
type GasEstimate struct {
	GasPrice *big.Int // wei per gas
	GasLimit uint64
	Total    *big.Int // GasPrice * GasLimit
}

// GasPrices derives the three speed tiers from the node's suggested price.
func (c *Client) GasPrices(ctx context.Context) (*GasPrices, error) {
	suggested, err := c.provider.GasPrice(ctx)
	if err != nil {
		return nil, seqerr.Wrap(err, "getting suggested gas price")
	}
	medium := suggested.BigInt()
	return &GasPrices{
		Slow:   scalePercent(medium, slowPercent),
		Medium: medium,
		Fast:   scalePercent(medium, fastPercent),
	}, nil
}

// GasPrice returns the price for speed.
func (c *Client) GasPrice(ctx context.Context, speed GasSpeed) (*big.Int, error) {
	prices, err := c.GasPrices(ctx)
	if err != nil {
		return nil, err
	}
	return prices.For(speed), nil
}

// EstimateGas asks the node how much gas call needs and prices it at speed.
func (c *Client) EstimateGas(ctx context.Context, call ethtypes.ContractCall, speed GasSpeed) (*GasEstimate, error) {
	price, err := c.GasPrice(ctx, speed)
	if err != nil {
		return nil, err
	}
	limitData, err := c.provider.EstimateContractCallGas(ctx, call)
	if err != nil {
		return nil, seqerr.Wrap(err, "estimating gas")
	}
	limit, err := limitData.Uint64()
	if err != nil {
		return nil, seqerr.WrapAs(seqerr.KindResponseParseError, err, "gas estimate does not fit in 64 bits")
	}
	return &GasEstimate{
		GasPrice: price,
		GasLimit: limit,
		Total:    new(big.Int).Mul(price, new(big.Int).SetUint64(limit)),
	}, nil
}

// FormatGasPrice renders a wei price in gwei, e.g. "2.5 gwei".
func FormatGasPrice(wei *big.Int) string {
	return chain.FormatValue(wei, chain.Gwei)
}

func scalePercent(n *big.Int, percent int64) *big.Int {
	out := new(big.Int).Mul(n, big.NewInt(percent))
	return out.Quo(out, big.NewInt(100))
}
