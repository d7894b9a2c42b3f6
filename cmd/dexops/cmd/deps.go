package cmd

import (
	"context"
	"time"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/MANTRA-Chain/mantra-dex/app"
	"github.com/MANTRA-Chain/mantra-dex/config"
	"github.com/MANTRA-Chain/mantra-dex/pkg/broadcast"
	"github.com/MANTRA-Chain/mantra-dex/pkg/contract"
	"github.com/MANTRA-Chain/mantra-dex/pkg/fee"
	"github.com/MANTRA-Chain/mantra-dex/pkg/node"
	"github.com/MANTRA-Chain/mantra-dex/pkg/signer"
)

// connection is a checked RPC endpoint with a client context bound to it.
type connection struct {
	clientCtx client.Context
	report    node.Report
}

// runtimeDeps opens everything that leaves the process: the node, the signer, the
// query and broadcast paths. Tests replace them with fakes.
type runtimeDeps struct {
	connect        func(ctx context.Context, clientCtx client.Context, rpc, expectChainID string) (connection, error)
	openLedger     func(enc app.EncodingConfig, prefix string, index uint32) (signer.Session, error)
	openMnemonic   func(enc app.EncodingConfig, mnemonic string) (signer.Session, error)
	newQuerier     func(conn connection, cfg config.Config) contract.Querier
	newBroadcaster func(conn connection, enc app.EncodingConfig, session signer.Session, cfg config.Config) broadcast.Broadcaster
	now            func() time.Time
}

func defaultRuntimeDeps() runtimeDeps {
	return runtimeDeps{
		connect: connectNode,
		openLedger: func(enc app.EncodingConfig, prefix string, index uint32) (signer.Session, error) {
			return signer.OpenLedger(enc.Codec, prefix, index)
		},
		openMnemonic: func(enc app.EncodingConfig, mnemonic string) (signer.Session, error) {
			return signer.FromMnemonic(enc.Codec, app.Bech32PrefixAccAddr, mnemonic, 0)
		},
		newQuerier: func(conn connection, cfg config.Config) contract.Querier {
			return contract.NewWasmQuerier(conn.clientCtx, cfg.QueryRate)
		},
		newBroadcaster: func(conn connection, enc app.EncodingConfig, session signer.Session, cfg config.Config) broadcast.Broadcaster {
			return broadcast.New(broadcast.NewClientChain(conn.clientCtx), enc.TxConfig, session, broadcast.Options{
				ChainID:      conn.report.ChainID,
				Timeout:      cfg.BroadcastTimeout,
				PollInterval: cfg.PollInterval,
			})
		},
		now: time.Now,
	}
}

// connectNode dials rpc, checks the node status and binds the client context to it.
func connectNode(ctx context.Context, clientCtx client.Context, rpc, expectChainID string) (connection, error) {
	rpcClient, err := node.Dial(rpc)
	if err != nil {
		return connection{}, err
	}

	cfg := node.DefaultConfig()
	cfg.ExpectChainID = expectChainID
	report, err := node.NewChecker(rpcClient, cfg).Check(ctx)
	if err != nil {
		return connection{}, err
	}

	return connection{
		clientCtx: clientCtx.
			WithClient(rpcClient).
			WithNodeURI(rpc).
			WithChainID(report.ChainID).
			WithBroadcastMode(flags.BroadcastSync),
		report: report,
	}, nil
}

func estimator(cfg config.Config) fee.Estimator {
	return fee.Estimator{GasPerMessage: cfg.GasPerMessage, GasPrice: cfg.GasPrice}
}
