// Package broadcast signs a message batch as one transaction and submits it.
package broadcast

import (
	"context"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/tx"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/MANTRA-Chain/mantra-dex/pkg/fee"
	"github.com/MANTRA-Chain/mantra-dex/pkg/signer"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Result is the outcome of a submitted transaction.
type Result struct {
	TxHash    string
	Code      uint32
	Codespace string
	RawLog    string
	Height    int64
	GasUsed   int64
	// Included is set once the transaction was found in a block.
	Included bool
}

// Broadcaster submits all messages in a single transaction. There is no retry.
type Broadcaster interface {
	Broadcast(ctx context.Context, msgs []sdk.Msg, plan fee.Plan, memo string) (*Result, error)
}

// Chain is the node access needed to sign and submit.
type Chain interface {
	AccountNumberSequence(addr sdk.AccAddress) (accNum, seq uint64, err error)
	BroadcastSync(txBytes []byte) (*sdk.TxResponse, error)
	QueryTx(hash string) (*sdk.TxResponse, error)
}

// Options controls the inclusion wait after a sync broadcast.
type Options struct {
	ChainID string
	// Timeout bounds the wait for block inclusion. Zero returns right after CheckTx.
	Timeout time.Duration
	// PollInterval is the delay between inclusion queries.
	PollInterval time.Duration
}

// TxBroadcaster signs with a signer.Session through the cosmos-sdk tx factory.
type TxBroadcaster struct {
	chain    Chain
	txConfig client.TxConfig
	session  signer.Session
	opts     Options
}

var _ Broadcaster = (*TxBroadcaster)(nil)

// New creates a TxBroadcaster.
func New(chain Chain, txConfig client.TxConfig, session signer.Session, opts Options) *TxBroadcaster {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	return &TxBroadcaster{
		chain:    chain,
		txConfig: txConfig,
		session:  session,
		opts:     opts,
	}
}

// Broadcast implements Broadcaster. A non-zero result code returns the Result along
// with ErrTxFailed carrying the code and raw log verbatim.
func (b *TxBroadcaster) Broadcast(ctx context.Context, msgs []sdk.Msg, plan fee.Plan, memo string) (*Result, error) {
	txBytes, err := b.sign(ctx, msgs, plan, memo)
	if err != nil {
		return nil, err
	}

	res, err := b.chain.BroadcastSync(txBytes)
	if err != nil {
		return nil, errorsmod.Wrap(types.ErrBroadcast, err.Error())
	}

	result := resultFrom(res)
	if result.Code != 0 {
		return result, txFailed(result)
	}

	if b.opts.Timeout <= 0 {
		return result, nil
	}

	included, err := b.waitForInclusion(ctx, res.TxHash)
	if err != nil {
		return result, err
	}
	if included == nil {
		return result, nil
	}

	result = resultFrom(included)
	result.Included = true
	if result.Code != 0 {
		return result, txFailed(result)
	}
	return result, nil
}

func (b *TxBroadcaster) sign(ctx context.Context, msgs []sdk.Msg, plan fee.Plan, memo string) ([]byte, error) {
	accNum, seq, err := b.chain.AccountNumberSequence(b.session.AccAddress())
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrBroadcast, "fetching account %s: %v", b.session.Address(), err)
	}

	txf := tx.Factory{}.
		WithTxConfig(b.txConfig).
		WithKeybase(b.session.Keyring()).
		WithChainID(b.opts.ChainID).
		WithAccountNumber(accNum).
		WithSequence(seq).
		WithGas(plan.GasLimit).
		WithFees(plan.Coins().String()).
		WithMemo(memo).
		WithSignMode(b.session.SignMode())

	txb, err := txf.BuildUnsignedTx(msgs...)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrBroadcast, "building tx: %v", err)
	}

	if err := tx.Sign(ctx, txf, b.session.Name(), txb, true); err != nil {
		return nil, errorsmod.Wrapf(types.ErrSigner, "signing tx: %v", err)
	}

	txBytes, err := b.txConfig.TxEncoder()(txb.GetTx())
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrBroadcast, "encoding tx: %v", err)
	}
	return txBytes, nil
}

// waitForInclusion polls for hash until it is found, the timeout elapses or ctx is
// done. A nil response with a nil error means the wait timed out.
func (b *TxBroadcaster) waitForInclusion(ctx context.Context, hash string) (*sdk.TxResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, nil
			}
			return nil, ctx.Err()
		case <-ticker.C:
			res, err := b.chain.QueryTx(hash)
			if err == nil && res != nil {
				return res, nil
			}
		}
	}
}

func resultFrom(res *sdk.TxResponse) *Result {
	return &Result{
		TxHash:    res.TxHash,
		Code:      res.Code,
		Codespace: res.Codespace,
		RawLog:    res.RawLog,
		Height:    res.Height,
		GasUsed:   res.GasUsed,
	}
}

func txFailed(r *Result) error {
	return errorsmod.Wrapf(types.ErrTxFailed, "code %d (%s): %s", r.Code, r.Codespace, r.RawLog)
}
