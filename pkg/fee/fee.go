// Package fee computes the fixed-price fee of a multi-message transaction.
package fee

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Plan is the gas limit and fee of one transaction.
type Plan struct {
	GasLimit uint64
	Denom    string
	Amount   sdkmath.Int
}

// Coins returns the fee as sdk.Coins. A zero plan has no coins.
func (p Plan) Coins() sdk.Coins {
	if p.Amount.IsNil() || p.Amount.IsZero() {
		return sdk.Coins{}
	}
	return sdk.NewCoins(sdk.NewCoin(p.Denom, p.Amount))
}

// String renders the plan as "<amount><denom> for <gas> gas".
func (p Plan) String() string {
	amount := sdkmath.ZeroInt()
	if !p.Amount.IsNil() {
		amount = p.Amount
	}
	return fmt.Sprintf("%s%s for %d gas", amount, p.Denom, p.GasLimit)
}

// Estimator charges a fixed amount of gas per message at a fixed gas price. Gas is
// not simulated.
type Estimator struct {
	GasPerMessage uint64
	GasPrice      sdk.DecCoin
}

// NewEstimator parses gasPrice ("0.025uom") and returns an Estimator.
func NewEstimator(gasPerMessage uint64, gasPrice string) (Estimator, error) {
	price, err := sdk.ParseDecCoin(gasPrice)
	if err != nil {
		return Estimator{}, fmt.Errorf("invalid gas price %q: %w", gasPrice, err)
	}
	return Estimator{GasPerMessage: gasPerMessage, GasPrice: price}, nil
}

// Estimate returns the plan for n messages: gas = GasPerMessage * n and
// fee = ceil(gas * price).
func (e Estimator) Estimate(n int) Plan {
	if n <= 0 {
		return Plan{Denom: e.GasPrice.Denom, Amount: sdkmath.ZeroInt()}
	}

	gas := e.GasPerMessage * uint64(n)
	amount := e.GasPrice.Amount.MulInt(sdkmath.NewIntFromUint64(gas)).Ceil().TruncateInt()

	return Plan{
		GasLimit: gas,
		Denom:    e.GasPrice.Denom,
		Amount:   amount,
	}
}

// Fixed returns a plan with a preset gas limit and fee.
func Fixed(gasLimit uint64, coin sdk.Coin) Plan {
	return Plan{GasLimit: gasLimit, Denom: coin.Denom, Amount: coin.Amount}
}
