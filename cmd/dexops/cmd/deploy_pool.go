package cmd

import (
	"encoding/json"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/cobra"

	"github.com/MANTRA-Chain/mantra-dex/config"
	"github.com/MANTRA-Chain/mantra-dex/pkg/confirm"
	"github.com/MANTRA-Chain/mantra-dex/pkg/pools"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

func newDeployPoolCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy-pool <network> <pool-config-path> <amount0> <amount1>",
		Short: "Create a pool on the pool manager and seed its initial liquidity",
		Long: fmt.Sprintf(`Create a pool from a pool definition file and provide the initial liquidity in
the same transaction. <network> is %q or %q; the chain settings, deployer
mnemonic and pool manager address are read from the scripts directory.
<amount0> and <amount1> are the base-unit amounts of the first and second asset.`,
			config.NetworkMainnet, config.NetworkTestnet),
		Example: `dexops deploy-pool mantra-testnet pools/om_usdc.json 1000000 1000000`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(4)(cmd, args); err != nil {
				return errorsmod.Wrapf(types.ErrInvalidArgs, "%v\nUsage: %s", err, cmd.UseLine())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeployPool(cmd, st, args[0], args[1], args[2], args[3])
		},
	}
}

func runDeployPool(cmd *cobra.Command, st *cliState, networkName, poolPath, arg0, arg1 string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := st.logger.With("network", networkName)

	network, err := config.LoadNetwork(st.cfg.ScriptsDir, networkName)
	if err != nil {
		return err
	}

	poolCfg, err := pools.LoadConfig(poolPath)
	if err != nil {
		return err
	}

	amount0, err := pools.ParseAmount(arg0)
	if err != nil {
		return err
	}
	amount1, err := pools.ParseAmount(arg1)
	if err != nil {
		return err
	}

	session, err := st.deps.openMnemonic(st.encoding, network.Mnemonic)
	if err != nil {
		return err
	}
	defer session.Close()

	conn, err := st.deps.connect(ctx, st.clientCtx, network.RPC, network.ChainID)
	if err != nil {
		return err
	}

	deployment, err := pools.Prepare(session.Address(), network.PoolManagerAddr, poolCfg, amount0, amount1)
	if err != nil {
		return err
	}

	pools.PrintSummary(out, network.ChainID, deployment)

	if err := confirm.Gate(cmd.InOrStdin(), out, "\nDo you want to proceed? (y/n) ", types.ShortAffirmativeToken); err != nil {
		fmt.Fprintln(out, "Pool deployment cancelled...")
		return errorsmod.Wrap(types.ErrAborted, err.Error())
	}

	result, err := st.deps.newBroadcaster(conn, st.encoding, session, st.cfg).
		Broadcast(ctx, deployment.Messages, deployment.Fee, "")
	if err != nil {
		if !types.IsTxError(err) {
			return err
		}
		// transaction failures are reported, not turned into an exit status
		fields := []any{"error", err}
		if result != nil {
			fields = append(fields, "tx_hash", result.TxHash, "code", result.Code, "raw_log", result.RawLog)
		}
		logger.Error("transaction failed", fields...)
		return nil
	}
	logger.Info("transaction succeeded", "tx_hash", result.TxHash, "height", result.Height)

	record := pools.NewRecord(network.PoolManagerAddr, poolCfg)
	outputPath := pools.OutputPath(st.cfg.ScriptsDir, network.ChainID)
	updated, err := pools.AppendRecord(outputPath, record, network.ChainID, network.PoolManagerAddr, st.deps.now())
	if err != nil {
		return errorsmod.Wrapf(types.ErrInvalidConfig, "pool created in tx %s but %s could not be updated: %v", result.TxHash, outputPath, err)
	}

	fmt.Fprintf(out, "\n**** Created %s pool on %s successfully ****\n\n", record.Label, network.ChainID)
	bz, err := json.MarshalIndent(updated, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated pool data: %s\n", bz)
	return nil
}
