package pools

import (
	"fmt"
	"io"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/MANTRA-Chain/mantra-dex/app"
	"github.com/MANTRA-Chain/mantra-dex/pkg/execmsg"
	"github.com/MANTRA-Chain/mantra-dex/pkg/fee"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Deployment is a prepared pool deployment transaction.
type Deployment struct {
	Config   Config
	Messages []sdk.Msg
	// Funds is the initial liquidity, sorted by denom.
	Funds sdk.Coins
	Fee   fee.Plan
}

// ParseAmount parses a positive integer amount given on the command line.
func ParseAmount(s string) (sdkmath.Int, error) {
	amount, ok := sdkmath.NewIntFromString(strings.TrimSpace(s))
	if !ok || !amount.IsPositive() {
		return sdkmath.Int{}, errorsmod.Wrapf(types.ErrInvalidArgs, "amount must be a positive integer, got %q", s)
	}
	return amount, nil
}

// Prepare builds the create_pool and provide_liquidity messages. amount0 and amount1
// pair with the first and second asset of cfg.
func Prepare(sender, poolManager string, cfg Config, amount0, amount1 sdkmath.Int) (Deployment, error) {
	create, err := execmsg.CreatePool(sender, poolManager, execmsg.CreatePoolParams{
		AssetDenoms:   cfg.Denoms(),
		AssetDecimals: cfg.Decimals(),
		PoolFees: execmsg.PoolFees{
			ProtocolFee: execmsg.Fee{Share: cfg.ProtocolFee},
			SwapFee:     execmsg.Fee{Share: cfg.SwapFee},
			BurnFee:     execmsg.Fee{Share: cfg.BurnFee},
		},
		PoolType:       execmsg.PoolType(cfg.PoolType, cfg.AmpFactor),
		PoolIdentifier: cfg.PoolIdentifier,
	}, app.PoolCreationFee())
	if err != nil {
		return Deployment{}, err
	}

	funds := []sdk.Coin{
		{Denom: cfg.Assets[0].Denom, Amount: amount0},
		{Denom: cfg.Assets[1].Denom, Amount: amount1},
	}
	provide, err := execmsg.ProvideLiquidity(sender, poolManager, execmsg.PoolIdentifier(cfg.PoolIdentifier), funds)
	if err != nil {
		return Deployment{}, err
	}

	return Deployment{
		Config:   cfg,
		Messages: []sdk.Msg{create, provide},
		Funds:    execmsg.Messages([]sdk.Msg{provide})[0].Funds,
		Fee:      fee.Fixed(app.DeployGasLimit, app.DeployFee()[0]),
	}, nil
}

// Label names a pool after the last path segment of each denom, e.g.
// "uom-uusdc" for ["uom", "factory/mantra1.../uusdc"].
func Label(denoms []string) string {
	parts := make([]string, len(denoms))
	for i, d := range denoms {
		parts[i] = d[strings.LastIndex(d, "/")+1:]
	}
	return strings.Join(parts, "-")
}

// LPAsset is the token factory denom of the LP share of a pool.
func LPAsset(poolManager, poolIdentifier string) string {
	return fmt.Sprintf("factory/%s/%s.LP", poolManager, execmsg.PoolIdentifier(poolIdentifier))
}

// PrintSummary writes the operator summary shown before the deployment prompt.
func PrintSummary(w io.Writer, chainID string, d Deployment) {
	cfg := d.Config
	fmt.Fprintln(w, "\nWARNING")
	fmt.Fprintln(w, "\nCreating pool with the following configuration:")
	fmt.Fprintf(w, "Chain id: %s\n", chainID)
	for i, a := range cfg.Assets {
		fmt.Fprintf(w, "Asset %d: %s - decimals: %d\n", i, a.Denom, a.Decimals)
	}
	fmt.Fprintf(w, "Pool type: %s\n", cfg.PoolType)
	if cfg.PoolType == execmsg.PoolTypeStableSwap {
		fmt.Fprintf(w, "Amp factor: %d\n", cfg.AmpFactor)
	}
	fmt.Fprintf(w, "Pool identifier: %s\n", cfg.PoolIdentifier)
	fmt.Fprintf(w, "Protocol fee: %s\n", cfg.ProtocolFee)
	fmt.Fprintf(w, "Swap fee: %s\n", cfg.SwapFee)
	fmt.Fprintf(w, "Burn fee: %s\n", cfg.BurnFee)
	fmt.Fprintf(w, "Funds: %s\n", d.Funds)
	fmt.Fprintf(w, "Fee: %s\n", d.Fee)
}
