package cmd

import (
	"fmt"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/cobra"

	"github.com/MANTRA-Chain/mantra-dex/pkg/metrics"
	"github.com/MANTRA-Chain/mantra-dex/pkg/node"
	"github.com/MANTRA-Chain/mantra-dex/pkg/observe"
	"github.com/MANTRA-Chain/mantra-dex/pkg/pipeline"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

func newEmergencyCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emergency",
		Short: "Emergency procedures signed with a Ledger device",
		Long: `Emergency procedures that act on every farm or pool of a contract in a single
transaction. The transaction is signed on a Ledger device; make sure it is connected,
unlocked and the Cosmos app is open.`,
	}

	cmd.AddCommand(
		newEmergencyActionCmd(st, pipeline.CloseFarms,
			"close-farms <rpc-endpoint> <farm-manager-address> [account-index]",
			"Close every farm of a farm manager",
			`dexops emergency close-farms "http://localhost:26657" "mantra1..." 0`),
		newEmergencyActionCmd(st, pipeline.DisablePoolFeatures,
			"toggle-pool-features <rpc-endpoint> <pool-manager-address> [account-index]",
			"Disable deposits, withdrawals and swaps on every pool of a pool manager",
			`dexops emergency toggle-pool-features "http://localhost:26657" "mantra1..." 0`),
	)

	return cmd
}

func newEmergencyActionCmd(st *cliState, action pipeline.Action, use, short, example string) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Short:   short,
		Example: example,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(2, 3)(cmd, args); err != nil {
				return errorsmod.Wrapf(types.ErrInvalidArgs, "%v\nUsage: %s", err, cmd.UseLine())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			index := uint32(0)
			if len(args) == 3 {
				v, err := strconv.ParseUint(args[2], 10, 32)
				if err != nil {
					return errorsmod.Wrapf(types.ErrInvalidArgs, "account index %q: %v", args[2], err)
				}
				index = uint32(v)
			}
			return runEmergency(cmd, st, action, args[0], args[1], index)
		},
	}
}

func runEmergency(cmd *cobra.Command, st *cliState, action pipeline.Action, rpc, contractAddr string, index uint32) (err error) {
	ctx := cmd.Context()
	logger := st.logger.With("action", action.Name)
	obs := observe.NewLogObserver(logger)

	runMetrics := metrics.NewRunMetrics(action.Name)
	defer func() {
		runMetrics.Finish(st.deps.now())
		if werr := runMetrics.WriteTextfile(st.cfg.MetricsTextfile); werr != nil {
			logger.Error("failed to write metrics textfile", "path", st.cfg.MetricsTextfile, "error", werr)
		}
	}()

	conn, err := st.deps.connect(ctx, st.clientCtx, rpc, "")
	if err != nil {
		return err
	}
	logNodeReport(obs, rpc, conn.report)

	obs.Observe(observe.Event{
		Phase:   observe.PhaseConnect,
		Level:   observe.LevelInfo,
		Message: "connecting to Ledger device, make sure it is unlocked with the Cosmos app open",
		Fields:  map[string]any{"hd_path": fmt.Sprintf("m/44'/118'/0'/0/%d", index)},
	})
	session, err := st.deps.openLedger(st.encoding, st.cfg.LedgerPrefix, index)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			obs.Observe(observe.Event{Phase: observe.PhaseCleanup, Level: observe.LevelError, Message: "error releasing signer", Fields: map[string]any{"error": cerr.Error()}})
			return
		}
		obs.Observe(observe.Event{Phase: observe.PhaseCleanup, Level: observe.LevelInfo, Message: "signer released"})
	}()

	obs.Observe(observe.Event{
		Phase:   observe.PhaseConnect,
		Level:   observe.LevelInfo,
		Message: "connected to Ledger",
		Fields: map[string]any{
			"address":  session.Address(),
			"rpc":      rpc,
			"contract": contractAddr,
		},
	})

	_, err = pipeline.Run(ctx, action, pipeline.Params{
		RPCEndpoint: rpc,
		Contract:    contractAddr,
		OutputDir:   st.cfg.OutputDir,
		PageLimit:   types.DefaultPageLimit,
	}, pipeline.Deps{
		Querier:     st.deps.newQuerier(conn, st.cfg),
		Broadcaster: st.deps.newBroadcaster(conn, st.encoding, session, st.cfg),
		Account:     session,
		Estimator:   estimator(st.cfg),
		In:          cmd.InOrStdin(),
		Out:         cmd.OutOrStdout(),
		Observer:    obs,
		Metrics:     runMetrics,
		Now:         st.deps.now,
	})
	if pipeline.IsCancelled(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled by the user.")
	}
	return err
}

func logNodeReport(obs observe.Observer, rpc string, r node.Report) {
	level := observe.LevelInfo
	if r.Status != node.StatusHealthy {
		level = observe.LevelWarn
	}
	obs.Observe(observe.Event{
		Phase:   observe.PhaseConnect,
		Level:   level,
		Message: r.Message,
		Fields: map[string]any{
			"rpc":        rpc,
			"chain_id":   r.ChainID,
			"height":     r.LatestHeight,
			"latency_ms": r.Latency.Milliseconds(),
		},
	})
}
