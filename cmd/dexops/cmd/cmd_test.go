package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	errorsmod "cosmossdk.io/errors"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"github.com/cosmos/cosmos-sdk/client"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/go-bip39"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/MANTRA-Chain/mantra-dex/app"
	"github.com/MANTRA-Chain/mantra-dex/config"
	"github.com/MANTRA-Chain/mantra-dex/pkg/broadcast"
	"github.com/MANTRA-Chain/mantra-dex/pkg/contract"
	"github.com/MANTRA-Chain/mantra-dex/pkg/fee"
	"github.com/MANTRA-Chain/mantra-dex/pkg/node"
	"github.com/MANTRA-Chain/mantra-dex/pkg/signer"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

const (
	farmManager = "mantra1farmmanager"
	poolManager = "mantra1poolmanager"
)

type fakeBroadcaster struct {
	calls  [][]sdk.Msg
	plans  []fee.Plan
	result *broadcast.Result
	err    error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, msgs []sdk.Msg, plan fee.Plan, _ string) (*broadcast.Result, error) {
	f.calls = append(f.calls, msgs)
	f.plans = append(f.plans, plan)
	if f.result == nil && f.err == nil {
		return &broadcast.Result{TxHash: "C0FFEE", Height: 77, Included: true}, nil
	}
	return f.result, f.err
}

func newMnemonic(t *testing.T) string {
	t.Helper()
	entropy, err := bip39.NewEntropy(256)
	require.NoError(t, err)
	mnemonic, err := bip39.NewMnemonic(entropy)
	require.NoError(t, err)
	return mnemonic
}

type CmdTestSuite struct {
	suite.Suite

	dir         string
	mnemonic    string
	broadcaster *fakeBroadcaster
	session     *signer.KeyringSession
	connectErr  error
	ledgerErr   error
	records     string
	connectedTo []string
	out         *bytes.Buffer
}

func TestCmdTestSuite(t *testing.T) {
	suite.Run(t, new(CmdTestSuite))
}

func (s *CmdTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.mnemonic = newMnemonic(s.T())
	s.broadcaster = &fakeBroadcaster{}
	s.connectErr = nil
	s.ledgerErr = nil
	s.records = `[{"identifier":"f1"},{"identifier":"f2"}]`
	s.connectedTo = nil
	s.session = nil
	s.out = &bytes.Buffer{}
}

func (s *CmdTestSuite) deps() runtimeDeps {
	deps := defaultRuntimeDeps()
	deps.connect = func(_ context.Context, clientCtx client.Context, rpc, expectChainID string) (connection, error) {
		s.connectedTo = append(s.connectedTo, rpc)
		if s.connectErr != nil {
			return connection{}, s.connectErr
		}
		chainID := expectChainID
		if chainID == "" {
			chainID = "mantra-1"
		}
		return connection{
			clientCtx: clientCtx,
			report:    node.Report{Status: node.StatusHealthy, ChainID: chainID, LatestHeight: 1},
		}, nil
	}
	deps.openLedger = func(enc app.EncodingConfig, prefix string, index uint32) (signer.Session, error) {
		if s.ledgerErr != nil {
			return nil, s.ledgerErr
		}
		session, err := signer.FromMnemonic(enc.Codec, prefix, s.mnemonic, index)
		s.session = session
		return session, err
	}
	deps.newQuerier = func(connection, config.Config) contract.Querier {
		return contract.QuerierFunc(func(_ context.Context, _ string, msg any) (json.RawMessage, error) {
			field := "farms"
			if _, ok := msg.(map[string]any)["pools"]; ok {
				field = "pools"
			}
			return json.RawMessage(fmt.Sprintf(`{%q:%s}`, field, s.records)), nil
		})
	}
	deps.newBroadcaster = func(connection, app.EncodingConfig, signer.Session, config.Config) broadcast.Broadcaster {
		return s.broadcaster
	}
	deps.now = func() time.Time { return time.UnixMilli(1_717_000_000_000) }
	return deps
}

func (s *CmdTestSuite) execute(stdin string, args ...string) error {
	rootCmd := newRootCmd(s.deps())
	rootCmd.SetArgs(append(args, "--"+FlagOutputDir, s.dir, "--"+FlagScriptsDir, s.dir))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(s.out)
	rootCmd.SetErr(s.out)
	return rootCmd.ExecuteContext(context.Background())
}

func (s *CmdTestSuite) files(pattern string) []string {
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	s.Require().NoError(err)
	return matches
}

func (s *CmdTestSuite) TestCloseFarmsConfirmed() {
	textfile := filepath.Join(s.dir, "dexops.prom")

	err := s.execute("yes\n", "emergency", "close-farms", "http://localhost:26657", farmManager, "3", "--"+FlagMetricsTextfile, textfile)
	s.Require().NoError(err)
	s.Require().Equal(0, types.ExitCode(err))

	s.Require().Len(s.broadcaster.calls, 1)
	s.Require().Len(s.broadcaster.calls[0], 2)
	s.Require().Equal(uint64(600_000), s.broadcaster.plans[0].GasLimit)
	s.Require().Equal("m/44'/118'/0'/0/3", s.session.HDPath())

	previews := s.files("emergency_close_all_farms_tx_preview_*.json")
	s.Require().Len(previews, 1)
	s.Require().Contains(s.out.String(), "Hash: C0FFEE")

	metrics, err := os.ReadFile(textfile)
	s.Require().NoError(err)
	s.Require().Contains(string(metrics), `dexops_messages_built{action="close_farms"} 2`)

	// the signer is released when the command returns
	_, err = s.session.Keyring().Key(s.session.Name())
	s.Require().Error(err)
}

func (s *CmdTestSuite) TestTogglePoolFeaturesDeclined() {
	s.records = `[{"pool_info":{"pool_identifier":"o.uom.uusdc"}}]`

	err := s.execute("no\n", "emergency", "toggle-pool-features", "http://localhost:26657", poolManager)
	s.Require().ErrorIs(err, types.ErrCancelled)
	s.Require().True(IsCancelled(err))
	s.Require().Equal(0, types.ExitCode(err))

	s.Require().Empty(s.broadcaster.calls)
	s.Require().Len(s.files("emergency_toggle_off_features_tx_preview_*.json"), 1)
	s.Require().Contains(s.out.String(), "Operation cancelled by the user.")

	_, err = s.session.Keyring().Key(s.session.Name())
	s.Require().Error(err)
}

func (s *CmdTestSuite) TestEmergencyMissingArgs() {
	err := s.execute("", "emergency", "close-farms", "http://localhost:26657")
	s.Require().ErrorIs(err, types.ErrInvalidArgs)
	s.Require().Equal(1, types.ExitCode(err))
	s.Require().Empty(s.connectedTo)
}

func (s *CmdTestSuite) TestEmergencyBadAccountIndex() {
	err := s.execute("", "emergency", "close-farms", "http://localhost:26657", farmManager, "first")
	s.Require().ErrorIs(err, types.ErrInvalidArgs)
}

func (s *CmdTestSuite) TestEmergencyNodeUnavailable() {
	s.connectErr = errorsmod.Wrap(types.ErrNodeUnavailable, "connection refused")

	err := s.execute("yes\n", "emergency", "close-farms", "http://localhost:26657", farmManager)
	s.Require().ErrorIs(err, types.ErrNodeUnavailable)
	s.Require().Equal(1, types.ExitCode(err))
	s.Require().Nil(s.session)
}

func (s *CmdTestSuite) TestEmergencyNoLedger() {
	s.ledgerErr = errorsmod.Wrap(types.ErrSigner, "ledger not found")

	err := s.execute("yes\n", "emergency", "toggle-pool-features", "http://localhost:26657", poolManager)
	s.Require().ErrorIs(err, types.ErrSigner)
	s.Require().Equal(1, types.ExitCode(err))
	s.Require().Empty(s.files("*.json"))
}

func (s *CmdTestSuite) TestEmergencyBroadcastFailure() {
	s.broadcaster.result = &broadcast.Result{TxHash: "BAD", Code: 11, RawLog: "out of gas in location: WriteFlat"}
	s.broadcaster.err = errorsmod.Wrap(types.ErrTxFailed, "code 11")

	err := s.execute("yes\n", "emergency", "close-farms", "http://localhost:26657", farmManager)
	s.Require().ErrorIs(err, types.ErrTxFailed)
	s.Require().Equal(1, types.ExitCode(err))
	s.Require().Contains(s.out.String(), "out of gas in location: WriteFlat")
}

func (s *CmdTestSuite) TestEmergencyMalformedResponse() {
	s.records = `{}`

	err := s.execute("yes\n", "emergency", "close-farms", "http://localhost:26657", farmManager)
	s.Require().ErrorIs(err, types.ErrMalformedResponse)
	s.Require().Empty(s.files("*.json"))
	s.Require().Empty(s.broadcaster.calls)
}

func (s *CmdTestSuite) writeNetwork() string {
	write := func(rel, content string) {
		path := filepath.Join(s.dir, rel)
		s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
		s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	}
	write("deploy_env/testnets/mantra.env", "CHAIN_ID=mantra-dukong-1\nDENOM=uom\nBINARY=mantrachaind\nRPC=https://rpc.dukong.mantrachain.io:443\n")
	write("deploy_env/mnemonics/deployer_mnemonic_testnet.txt", s.mnemonic+"\n")
	write("output/mantra-dukong-1_mantra_dex_contracts.json", `{"contracts":[{"wasm":"farm_manager.wasm","contract_address":"mantra1farm"},{"wasm":"pool_manager.wasm","contract_address":"`+poolManager+`"}]}`)
	write("pools/om_usdc.json", `{"pool_identifier":"om-usdc","pool_type":"constant_product","protocol_fee":"0.001","swap_fee":"0.002","burn_fee":"0","assets":[{"denom":"uom","decimals":6},{"denom":"factory/mantra1abc/uUSDC","decimals":6}]}`)
	return filepath.Join(s.dir, "pools/om_usdc.json")
}

func (s *CmdTestSuite) TestDeployPool() {
	poolFile := s.writeNetwork()

	err := s.execute("y\n", "deploy-pool", "mantra-testnet", poolFile, "1000000", "2000000")
	s.Require().NoError(err)

	s.Require().Equal([]string{"https://rpc.dukong.mantrachain.io:443"}, s.connectedTo)
	s.Require().Len(s.broadcaster.calls, 1)
	s.Require().Len(s.broadcaster.calls[0], 2)
	s.Require().Equal("1200000uom", s.broadcaster.plans[0].Coins().String())

	create := s.broadcaster.calls[0][0].(*wasmtypes.MsgExecuteContract)
	s.Require().Equal(poolManager, create.Contract)
	s.Require().Equal("176000000uom", create.Funds.String())
	s.Require().JSONEq(`{"create_pool":{
		"asset_denoms":["uom","factory/mantra1abc/uUSDC"],
		"asset_decimals":[6,6],
		"pool_fees":{"protocol_fee":{"share":"0.001"},"swap_fee":{"share":"0.002"},"burn_fee":{"share":"0"},"extra_fees":[]},
		"pool_type":"constant_product",
		"pool_identifier":"om-usdc"}}`, string(create.Msg))

	provide := s.broadcaster.calls[0][1].(*wasmtypes.MsgExecuteContract)
	s.Require().JSONEq(`{"provide_liquidity":{"pool_identifier":"o.om-usdc"}}`, string(provide.Msg))
	s.Require().Equal("2000000factory/mantra1abc/uUSDC,1000000uom", provide.Funds.String())

	bz, err := os.ReadFile(filepath.Join(s.dir, "output", "mantra-dukong-1_pools.json"))
	s.Require().NoError(err)

	var out map[string]any
	s.Require().NoError(json.Unmarshal(bz, &out))
	s.Require().Equal("mantra-dukong-1", out["chain_id"])
	s.Require().Equal(poolManager, out["pool_manager_addr"])
	pool := out["pools"].([]any)[0].(map[string]any)
	s.Require().Equal("uom-uUSDC", pool["label"])
	s.Require().Equal("o.om-usdc", pool["pool_identifier"])
	s.Require().Equal("ConstantProduct", pool["pool_type"])
	s.Require().Equal("factory/"+poolManager+"/o.om-usdc.LP", pool["lp_asset"])

	s.Require().Contains(s.out.String(), "Created uom-uUSDC pool on mantra-dukong-1 successfully")
}

func (s *CmdTestSuite) TestDeployPoolDeclined() {
	poolFile := s.writeNetwork()

	err := s.execute("n\n", "deploy-pool", "mantra-testnet", poolFile, "1000000", "2000000")
	s.Require().ErrorIs(err, types.ErrAborted)
	s.Require().Equal(1, types.ExitCode(err))
	s.Require().Empty(s.broadcaster.calls)
	s.Require().Contains(s.out.String(), "Pool deployment cancelled...")
	s.Require().NoFileExists(filepath.Join(s.dir, "output", "mantra-dukong-1_pools.json"))
}

func (s *CmdTestSuite) TestDeployPoolTxFailureExitsZero() {
	poolFile := s.writeNetwork()
	s.broadcaster.err = errorsmod.Wrap(types.ErrBroadcast, "connection reset")

	err := s.execute("y\n", "deploy-pool", "mantra-testnet", poolFile, "1000000", "2000000")
	s.Require().NoError(err)
	s.Require().Contains(s.out.String(), "transaction failed")
	s.Require().NoFileExists(filepath.Join(s.dir, "output", "mantra-dukong-1_pools.json"))
}

func (s *CmdTestSuite) TestDeployPoolSigningErrorFails() {
	poolFile := s.writeNetwork()
	s.broadcaster.err = errorsmod.Wrap(types.ErrSigner, "signing tx: key not found")

	err := s.execute("y\n", "deploy-pool", "mantra-testnet", poolFile, "1000000", "2000000")
	s.Require().ErrorIs(err, types.ErrSigner)
	s.Require().Equal(1, types.ExitCode(err))
	s.Require().NotContains(s.out.String(), "transaction failed")
	s.Require().NoFileExists(filepath.Join(s.dir, "output", "mantra-dukong-1_pools.json"))
}

func (s *CmdTestSuite) TestDeployPoolInvalidNetwork() {
	err := s.execute("y\n", "deploy-pool", "mantra-devnet", "pool.json", "1", "1")
	s.Require().ErrorIs(err, types.ErrInvalidNetwork)
	s.Require().Equal(1, types.ExitCode(err))
}

func (s *CmdTestSuite) TestDeployPoolMissingPoolFile() {
	s.writeNetwork()

	err := s.execute("y\n", "deploy-pool", "mantra-testnet", filepath.Join(s.dir, "missing.json"), "1", "1")
	s.Require().ErrorIs(err, types.ErrConfigNotFound)
}

func (s *CmdTestSuite) TestDeployPoolBadAmount() {
	poolFile := s.writeNetwork()

	err := s.execute("y\n", "deploy-pool", "mantra-testnet", poolFile, "1000000", "lots")
	s.Require().ErrorIs(err, types.ErrInvalidArgs)
}

func (s *CmdTestSuite) TestInvalidLogFormat() {
	err := s.execute("", "emergency", "close-farms", "http://localhost:26657", farmManager, "--"+FlagLogFormat, "xml")
	s.Require().ErrorIs(err, types.ErrInvalidConfig)
	s.Require().Empty(s.connectedTo)
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantOut  string
		wantCode int
	}{
		{"success", nil, "", 0},
		{"declined", errorsmod.Wrap(types.ErrCancelled, `answer was "no"`), "", 0},
		{"fatal", errorsmod.Wrap(types.ErrMalformedResponse, "missing pools array"), "Fatal error: missing pools array", 1},
		{"tx", errorsmod.Wrap(types.ErrTxFailed, "code 5 (sdk): insufficient funds"), "Transaction error: code 5 (sdk): insufficient funds", 1},
		{"aborted", errorsmod.Wrap(types.ErrAborted, "declined"), "Error: declined", 1},
		{"other", errors.New("boom"), "Error: boom", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.Equal(t, tt.wantCode, ReportError(&buf, tt.err))
			if tt.wantOut == "" {
				require.Empty(t, buf.String())
				return
			}
			require.Contains(t, buf.String(), tt.wantOut)
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, config.Config{LogLevel: "warn", LogFormat: config.LogFormatJSON})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "phase", "enumerate")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"phase":"enumerate"`)
	require.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := newLogger(&bytes.Buffer{}, config.Config{LogLevel: "loud"})
	require.True(t, errors.Is(err, types.ErrInvalidConfig))
}

func TestBindFlags(t *testing.T) {
	v := config.NewViper()
	rootCmd := newRootCmd(defaultRuntimeDeps())
	require.NoError(t, bindFlags(v, rootCmd.PersistentFlags()))
	require.NoError(t, rootCmd.PersistentFlags().Set(FlagOutputDir, "/var/lib/dexops"))
	require.Equal(t, "/var/lib/dexops", v.GetString(config.KeyOutputDir))

	require.Error(t, bindFlags(v, pflag.NewFlagSet("empty", pflag.ContinueOnError)))
}
