package execmsg

import (
	"sort"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Pool types understood by the pool manager.
const (
	PoolTypeConstantProduct = "constant_product"
	PoolTypeStableSwap      = "stable_swap"
)

// Fee is a pool fee expressed as a decimal share, e.g. "0.001".
type Fee struct {
	Share string `json:"share"`
}

// PoolFees is the fee schedule of a new pool.
type PoolFees struct {
	ProtocolFee Fee   `json:"protocol_fee"`
	SwapFee     Fee   `json:"swap_fee"`
	BurnFee     Fee   `json:"burn_fee"`
	ExtraFees   []Fee `json:"extra_fees"`
}

// CreatePoolParams describes the create_pool call.
type CreatePoolParams struct {
	AssetDenoms    []string `json:"asset_denoms"`
	AssetDecimals  []uint32 `json:"asset_decimals"`
	PoolFees       PoolFees `json:"pool_fees"`
	PoolType       any      `json:"pool_type"`
	PoolIdentifier string   `json:"pool_identifier"`
}

// PoolType renders the pool_type field: the plain string for constant product pools
// and {"stable_swap":{"amp":N}} for stableswap pools.
func PoolType(kind string, amp uint64) any {
	if kind == PoolTypeStableSwap {
		return map[string]any{PoolTypeStableSwap: map[string]uint64{"amp": amp}}
	}
	return PoolTypeConstantProduct
}

// CreatePool builds the create_pool message. fee pays for the pool creation and the
// LP token denom.
func CreatePool(sender, poolManager string, params CreatePoolParams, fee sdk.Coin) (sdk.Msg, error) {
	if params.PoolFees.ExtraFees == nil {
		params.PoolFees.ExtraFees = []Fee{}
	}
	return New(sender, poolManager, map[string]any{"create_pool": params}, sdk.Coins{fee})
}

// PoolIdentifier is the identifier the pool manager assigns to a pool created with
// the given custom identifier.
func PoolIdentifier(id string) string {
	return "o." + id
}

// ProvideLiquidity builds the provide_liquidity message seeding poolID with funds.
// Funds are sorted by denom as the chain requires.
func ProvideLiquidity(sender, poolManager, poolID string, funds []sdk.Coin) (sdk.Msg, error) {
	sorted := make(sdk.Coins, len(funds))
	copy(sorted, funds)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Denom < sorted[j].Denom })

	return New(sender, poolManager, map[string]any{
		"provide_liquidity": map[string]string{"pool_identifier": poolID},
	}, sorted)
}
