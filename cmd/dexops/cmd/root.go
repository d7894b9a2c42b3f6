package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/client"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MANTRA-Chain/mantra-dex/app"
	"github.com/MANTRA-Chain/mantra-dex/config"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Persistent flags
const (
	FlagConfig          = "config"
	FlagLogLevel        = "log-level"
	FlagLogFormat       = "log-format"
	FlagOutputDir       = "output-dir"
	FlagScriptsDir      = "scripts-dir"
	FlagMetricsTextfile = "metrics-textfile"
)

// cliState is filled by the root PersistentPreRunE and read by every subcommand.
type cliState struct {
	viper     *viper.Viper
	cfg       config.Config
	logger    log.Logger
	encoding  app.EncodingConfig
	clientCtx client.Context
	deps      runtimeDeps
}

// NewRootCmd creates the dexops root command. It is called once in the main
// function.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultRuntimeDeps())
}

func newRootCmd(deps runtimeDeps) *cobra.Command {
	app.SetConfig()

	encodingConfig := app.MakeEncodingConfig()
	st := &cliState{
		viper:    config.NewViper(),
		encoding: encodingConfig,
		deps:     deps,
		logger:   log.NewNopLogger(),
	}

	rootCmd := &cobra.Command{
		Use:   "dexops",
		Short: "Operational tooling for the MANTRA DEX contracts",
		Long: `dexops deploys liquidity pools and runs the emergency procedures of the MANTRA DEX:
closing every farm of a farm manager and switching off every pool of a pool manager.

Every bulk action writes a preview of the transaction to disk and asks for
confirmation before anything is signed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
			return st.load(cmd)
		},
	}

	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file (toml, yaml or json)")
	rootCmd.PersistentFlags().String(FlagLogLevel, "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().String(FlagLogFormat, config.LogFormatPlain, "Log format (plain|json)")
	rootCmd.PersistentFlags().String(FlagOutputDir, ".", "Directory receiving transaction preview files")
	rootCmd.PersistentFlags().String(FlagScriptsDir, "./scripts/deployment", "Directory holding deploy_env/ and output/")
	rootCmd.PersistentFlags().String(FlagMetricsTextfile, "", "Write run metrics to this Prometheus textfile")

	if err := bindFlags(st.viper, rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		newDeployPoolCmd(st),
		newEmergencyCmd(st),
	)

	return rootCmd
}

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	FlagLogLevel:        config.KeyLogLevel,
	FlagLogFormat:       config.KeyLogFormat,
	FlagOutputDir:       config.KeyOutputDir,
	FlagScriptsDir:      config.KeyScriptsDir,
	FlagMetricsTextfile: config.KeyMetricsTextfile,
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			return fmt.Errorf("flag --%s is not defined", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func (st *cliState) load(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return err
	}
	if err := config.ReadFile(st.viper, path); err != nil {
		return err
	}

	st.cfg, err = config.Load(st.viper)
	if err != nil {
		return err
	}

	st.logger, err = newLogger(cmd.ErrOrStderr(), st.cfg)
	if err != nil {
		return err
	}

	st.clientCtx = client.Context{}.
		WithCodec(st.encoding.Codec).
		WithInterfaceRegistry(st.encoding.InterfaceRegistry).
		WithAccountRetriever(authtypes.AccountRetriever{}).
		WithTxConfig(st.encoding.TxConfig).
		WithLegacyAmino(st.encoding.Amino).
		WithInput(cmd.InOrStdin()).
		WithOutput(cmd.OutOrStdout()).
		WithCmdContext(cmd.Context())

	return nil
}

func newLogger(w io.Writer, cfg config.Config) (log.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidConfig, config.KeyLogLevel, err)
	}

	opts := []log.Option{log.LevelOption(level)}
	if cfg.LogFormat == config.LogFormatJSON {
		opts = append(opts, log.OutputJSONOption())
	}
	if f, ok := w.(*os.File); !ok || f != os.Stderr {
		opts = append(opts, log.ColorOption(false))
	}

	return log.NewLogger(w, opts...), nil
}

// IsCancelled reports whether err is the operator declining an emergency action,
// which is not reported as an error.
func IsCancelled(err error) bool {
	return errors.Is(err, types.ErrCancelled)
}

// ReportError writes err to w, classified by kind, and returns the process exit
// status. A declined confirmation prints nothing.
func ReportError(w io.Writer, err error) int {
	switch {
	case err == nil, IsCancelled(err):
	case types.IsFatal(err):
		fmt.Fprintf(w, "Fatal error: %v\n", err)
	case types.IsTxError(err):
		fmt.Fprintf(w, "Transaction error: %v\n", err)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return types.ExitCode(err)
}
