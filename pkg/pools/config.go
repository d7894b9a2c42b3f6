// Package pools prepares liquidity pool deployments: the pool definition file, the
// create and seed messages, and the per-chain record of deployed pools.
package pools

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/cast"

	"github.com/MANTRA-Chain/mantra-dex/pkg/execmsg"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Asset is one side of a pool.
type Asset struct {
	Denom    string `json:"denom"`
	Decimals uint8  `json:"decimals"`
}

// Config is a pool definition. Numeric fields are accepted as JSON strings or
// numbers.
type Config struct {
	PoolIdentifier string
	PoolType       string
	AmpFactor      uint64
	ProtocolFee    string
	SwapFee        string
	BurnFee        string
	Assets         []Asset
}

type rawConfig struct {
	PoolIdentifier string `json:"pool_identifier"`
	PoolType       string `json:"pool_type"`
	AmpFactor      any    `json:"amp_factor"`
	ProtocolFee    any    `json:"protocol_fee"`
	SwapFee        any    `json:"swap_fee"`
	BurnFee        any    `json:"burn_fee"`
	Assets         []struct {
		Denom    string `json:"denom"`
		Decimals any    `json:"decimals"`
	} `json:"assets"`
}

// LoadConfig reads and validates the pool definition at path.
func LoadConfig(path string) (Config, error) {
	bz, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, errorsmod.Wrapf(types.ErrConfigNotFound, "pool file %s", path)
		}
		return Config{}, errorsmod.Wrapf(types.ErrInvalidConfig, "reading %s: %v", path, err)
	}
	return ParseConfig(bz)
}

// ParseConfig decodes and validates a pool definition.
func ParseConfig(bz []byte) (Config, error) {
	var raw rawConfig
	if err := json.Unmarshal(bz, &raw); err != nil {
		return Config{}, errorsmod.Wrapf(types.ErrInvalidConfig, "parsing pool file: %v", err)
	}

	cfg := Config{
		PoolIdentifier: raw.PoolIdentifier,
		PoolType:       raw.PoolType,
	}

	var err error
	if cfg.ProtocolFee, err = share("protocol_fee", raw.ProtocolFee); err != nil {
		return Config{}, err
	}
	if cfg.SwapFee, err = share("swap_fee", raw.SwapFee); err != nil {
		return Config{}, err
	}
	if cfg.BurnFee, err = share("burn_fee", raw.BurnFee); err != nil {
		return Config{}, err
	}

	if cfg.PoolType == execmsg.PoolTypeStableSwap {
		cfg.AmpFactor, err = cast.ToUint64E(raw.AmpFactor)
		if err != nil {
			return Config{}, errorsmod.Wrapf(types.ErrInvalidConfig, "amp_factor: %v", err)
		}
	}

	for i, a := range raw.Assets {
		decimals, err := cast.ToUint8E(a.Decimals)
		if err != nil {
			return Config{}, errorsmod.Wrapf(types.ErrInvalidConfig, "assets[%d].decimals: %v", i, err)
		}
		cfg.Assets = append(cfg.Assets, Asset{Denom: a.Denom, Decimals: decimals})
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func share(field string, v any) (string, error) {
	if v == nil {
		return "", errorsmod.Wrapf(types.ErrInvalidConfig, "%s is required", field)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", errorsmod.Wrapf(types.ErrInvalidConfig, "%s: %v", field, err)
	}
	if _, err := cast.ToFloat64E(s); err != nil {
		return "", errorsmod.Wrapf(types.ErrInvalidConfig, "%s must be a decimal, got %q", field, s)
	}
	return s, nil
}

// Validate validates the pool definition
func (c Config) Validate() error {
	if c.PoolIdentifier == "" {
		return errorsmod.Wrap(types.ErrInvalidConfig, "pool_identifier is required")
	}

	switch c.PoolType {
	case execmsg.PoolTypeConstantProduct:
	case execmsg.PoolTypeStableSwap:
		if c.AmpFactor == 0 {
			return errorsmod.Wrap(types.ErrInvalidConfig, "amp_factor must be positive for stable_swap pools")
		}
	default:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "pool_type must be %q or %q, got %q",
			execmsg.PoolTypeConstantProduct, execmsg.PoolTypeStableSwap, c.PoolType)
	}

	if len(c.Assets) != 2 {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "expected 2 assets, got %d", len(c.Assets))
	}
	for i, a := range c.Assets {
		if a.Denom == "" {
			return errorsmod.Wrapf(types.ErrInvalidConfig, "assets[%d].denom is required", i)
		}
	}
	if c.Assets[0].Denom == c.Assets[1].Denom {
		return errorsmod.Wrap(types.ErrInvalidConfig, "pool assets must differ")
	}

	return nil
}

// Denoms returns the asset denoms in definition order.
func (c Config) Denoms() []string {
	out := make([]string, len(c.Assets))
	for i, a := range c.Assets {
		out[i] = a.Denom
	}
	return out
}

// Decimals returns the asset decimals in definition order, widened so they encode
// as a JSON number array.
func (c Config) Decimals() []uint32 {
	out := make([]uint32, len(c.Assets))
	for i, a := range c.Assets {
		out[i] = uint32(a.Decimals)
	}
	return out
}

// DisplayType is the pool type as recorded in the pools output file.
func (c Config) DisplayType() string {
	if c.PoolType == execmsg.PoolTypeStableSwap {
		return "StableSwap"
	}
	return "ConstantProduct"
}
