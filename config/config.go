// Package config assembles the immutable runtime and network configuration that is
// threaded through every dexops command. Nothing here is read after startup.
package config

import (
	"fmt"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/viper"

	"github.com/MANTRA-Chain/mantra-dex/app"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. DEXOPS_LOG_LEVEL for log.level.
const EnvPrefix = "DEXOPS"

// Config keys
const (
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyOutputDir        = "output.dir"
	KeyScriptsDir       = "scripts.dir"
	KeyQueryRate        = "query.rate"
	KeyGasPrice         = "fees.gas_price"
	KeyGasPerMessage    = "fees.gas_per_message"
	KeyBroadcastTimeout = "broadcast.timeout"
	KeyPollInterval     = "broadcast.poll_interval"
	KeyMetricsTextfile  = "metrics.textfile"
	KeyLedgerPrefix     = "ledger.prefix"
)

// Log formats
const (
	LogFormatPlain = "plain"
	LogFormatJSON  = "json"
)

// Config holds the runtime configuration of a dexops invocation.
type Config struct {
	LogLevel  string
	LogFormat string

	// OutputDir receives emergency preview files.
	OutputDir string
	// ScriptsDir holds deploy_env/ and output/ for pool deployment.
	ScriptsDir string
	// QueryRate limits contract queries per second. Zero disables the limit.
	QueryRate float64

	GasPrice      sdk.DecCoin
	GasPerMessage uint64

	BroadcastTimeout time.Duration
	PollInterval     time.Duration

	MetricsTextfile string
	LedgerPrefix    string
}

// SetDefaults registers the default value of every config key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, LogFormatPlain)
	v.SetDefault(KeyOutputDir, ".")
	v.SetDefault(KeyScriptsDir, "./scripts/deployment")
	v.SetDefault(KeyQueryRate, 0)
	v.SetDefault(KeyGasPrice, app.DefaultGasPrice)
	v.SetDefault(KeyGasPerMessage, app.GasPerMessage)
	v.SetDefault(KeyBroadcastTimeout, 60*time.Second)
	v.SetDefault(KeyPollInterval, 3*time.Second)
	v.SetDefault(KeyMetricsTextfile, "")
	v.SetDefault(KeyLedgerPrefix, app.Bech32PrefixAccAddr)
}

// NewViper returns a viper instance with defaults and environment overrides wired.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges the config file at path into v. The format is taken from the
// file extension (toml, yaml or json).
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errorsmod.Wrapf(types.ErrConfigNotFound, "reading %s: %v", path, err)
	}
	return nil
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	gasPrice, err := sdk.ParseDecCoin(v.GetString(KeyGasPrice))
	if err != nil {
		return Config{}, errorsmod.Wrapf(types.ErrInvalidConfig, "%s: %v", KeyGasPrice, err)
	}

	cfg := Config{
		LogLevel:         v.GetString(KeyLogLevel),
		LogFormat:        v.GetString(KeyLogFormat),
		OutputDir:        v.GetString(KeyOutputDir),
		ScriptsDir:       v.GetString(KeyScriptsDir),
		QueryRate:        v.GetFloat64(KeyQueryRate),
		GasPrice:         gasPrice,
		GasPerMessage:    v.GetUint64(KeyGasPerMessage),
		BroadcastTimeout: v.GetDuration(KeyBroadcastTimeout),
		PollInterval:     v.GetDuration(KeyPollInterval),
		MetricsTextfile:  v.GetString(KeyMetricsTextfile),
		LedgerPrefix:     v.GetString(KeyLedgerPrefix),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c Config) Validate() error {
	switch c.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errorsmod.Wrapf(types.ErrInvalidConfig, "%s must be %q or %q, got %q", KeyLogFormat, LogFormatPlain, LogFormatJSON, c.LogFormat)
	}

	if c.QueryRate < 0 {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "%s must be zero or positive", KeyQueryRate)
	}

	if c.GasPerMessage == 0 {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "%s must be positive", KeyGasPerMessage)
	}

	if !c.GasPrice.IsPositive() {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "%s must be positive", KeyGasPrice)
	}

	if c.BroadcastTimeout < 0 || c.PollInterval <= 0 {
		return fmt.Errorf("%w: broadcast timeout must not be negative and poll interval must be positive", types.ErrInvalidConfig)
	}

	if c.LedgerPrefix == "" {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "%s is required", KeyLedgerPrefix)
	}

	return nil
}
