package app

import (
	"sync"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// Bech32PrefixAccAddr defines the Bech32 prefix of an account's address
	Bech32PrefixAccAddr = "mantra"
	// Bech32PrefixAccPub defines the Bech32 prefix of an account's public key
	Bech32PrefixAccPub = "mantrapub"
	// Bech32PrefixValAddr defines the Bech32 prefix of a validator's operator address
	Bech32PrefixValAddr = "mantravaloper"
	// Bech32PrefixValPub defines the Bech32 prefix of a validator's operator public key
	Bech32PrefixValPub = "mantravaloperpub"
	// Bech32PrefixConsAddr defines the Bech32 prefix of a consensus node address
	Bech32PrefixConsAddr = "mantravalcons"
	// Bech32PrefixConsPub defines the Bech32 prefix of a consensus node public key
	Bech32PrefixConsPub = "mantravalconspub"

	// CoinType is the SLIP44 coin type used for key derivation (cosmos hub path).
	CoinType = 118

	// FeeDenom is the denom fees and pool creation costs are paid in.
	FeeDenom = "uom"

	// DefaultGasPrice is the gas price used by the emergency flows.
	DefaultGasPrice = "0.025" + FeeDenom

	// GasPerMessage is the empirical gas estimate for one execute-contract message.
	// It is not simulated; raise it by hand if broadcasts run out of gas.
	GasPerMessage = 300_000

	// DeployGasLimit and DeployFeeAmount are the fixed fee of a pool deployment tx.
	DeployGasLimit  = 1_200_000
	DeployFeeAmount = 1_200_000

	// PoolCreationFeeAmount covers the pool creation fee plus the token factory fee
	// for the LP denom.
	PoolCreationFeeAmount = 176_000_000
)

// PoolCreationFee is the coin attached to every create_pool message.
func PoolCreationFee() sdk.Coin {
	return sdk.NewCoin(FeeDenom, sdkmath.NewInt(PoolCreationFeeAmount))
}

// DeployFee is the fixed fee paid by the pool deployment transaction.
func DeployFee() sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(FeeDenom, sdkmath.NewInt(DeployFeeAmount)))
}

var setConfigOnce sync.Once

// SetConfig installs the MANTRA bech32 prefixes and coin type on the global sdk config.
// It is safe to call more than once.
func SetConfig() {
	setConfigOnce.Do(func() {
		config := sdk.GetConfig()
		config.SetBech32PrefixForAccount(Bech32PrefixAccAddr, Bech32PrefixAccPub)
		config.SetBech32PrefixForValidator(Bech32PrefixValAddr, Bech32PrefixValPub)
		config.SetBech32PrefixForConsensusNode(Bech32PrefixConsAddr, Bech32PrefixConsPub)
		config.SetCoinType(CoinType)
		config.Seal()
	})
}
