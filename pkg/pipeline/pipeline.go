// Package pipeline runs a bulk contract action: enumerate every entity, build one
// message per entity, price the transaction, write a preview, ask the operator and
// only then broadcast.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MANTRA-Chain/mantra-dex/pkg/broadcast"
	"github.com/MANTRA-Chain/mantra-dex/pkg/confirm"
	"github.com/MANTRA-Chain/mantra-dex/pkg/contract"
	"github.com/MANTRA-Chain/mantra-dex/pkg/enumerator"
	"github.com/MANTRA-Chain/mantra-dex/pkg/execmsg"
	"github.com/MANTRA-Chain/mantra-dex/pkg/fee"
	"github.com/MANTRA-Chain/mantra-dex/pkg/observe"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Account is the signing identity as seen by the pipeline.
type Account interface {
	Address() string
	AccountIndex() uint32
	HDPath() string
}

// Metrics receives run counters. *metrics.RunMetrics implements it.
type Metrics interface {
	AddQueries(n int)
	SetEntities(n int, partial bool)
	SetMessages(n int)
	SetFee(denom string, amount float64)
	SetState(state string, all []string)
	ObserveBroadcast(d time.Duration, ok bool)
}

// Deps are the capabilities a run needs. Everything that touches the network, the
// terminal or the clock is injected.
type Deps struct {
	Querier     contract.Querier
	Broadcaster broadcast.Broadcaster
	Account     Account
	Estimator   fee.Estimator

	In  io.Reader
	Out io.Writer

	Observer observe.Observer
	Metrics  Metrics
	Now      func() time.Time
}

// Params are the per-invocation inputs.
type Params struct {
	RPCEndpoint string
	Contract    string
	OutputDir   string
	PageLimit   uint32
}

// Outcome summarizes a finished run.
type Outcome struct {
	RunID       string
	State       State
	History     []State
	Enumeration enumerator.Result
	Messages    int
	Fee         fee.Plan
	PreviewPath string
	Broadcast   *broadcast.Result
}

// Run executes action against params.Contract. The returned error is nil for a
// successful run and for a run with nothing to do, wraps ErrCancelled when the
// operator declines, and carries the failure otherwise. The outcome is always
// populated with the state reached.
func Run(ctx context.Context, action Action, params Params, deps Deps) (Outcome, error) {
	obs := deps.Observer
	if obs == nil {
		obs = observe.Nop
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}

	r := &run{
		action: action,
		params: params,
		deps:   deps,
		obs:    obs,
		now:    now,
		out:    out,
		outcome: Outcome{
			RunID: confirm.NewRunID(),
		},
	}
	r.sm = newMachine(r.entered)

	err := r.execute(ctx)
	r.outcome.State = r.sm.current
	r.outcome.History = r.sm.history
	return r.outcome, err
}

type run struct {
	action Action
	params Params
	deps   Deps
	obs    observe.Observer
	now    func() time.Time
	out    io.Writer

	sm      *machine
	outcome Outcome
}

func (r *run) entered(s State) {
	if r.deps.Metrics == nil {
		return
	}
	all := make([]string, len(States))
	for i, st := range States {
		all[i] = string(st)
	}
	r.deps.Metrics.SetState(string(s), all)
}

func (r *run) fail(err error) error {
	if terr := r.sm.to(StateFailed); terr != nil {
		return errors.Join(err, terr)
	}
	return err
}

func (r *run) execute(ctx context.Context) error {
	if err := r.sm.to(StateEnumerating); err != nil {
		return err
	}

	res, err := enumerator.New(r.deps.Querier, r.params.Contract, r.params.PageLimit, r.obs).
		Enumerate(ctx, r.action.Source, "")
	r.outcome.Enumeration = res
	if r.deps.Metrics != nil {
		r.deps.Metrics.AddQueries(res.Queries)
	}
	if err != nil {
		return r.fail(err)
	}
	if r.deps.Metrics != nil {
		r.deps.Metrics.SetEntities(len(res.IDs), res.Partial)
	}

	if len(res.IDs) == 0 {
		r.obs.Observe(observe.Event{
			Phase:   observe.PhaseEnumerate,
			Level:   observe.LevelInfo,
			Message: fmt.Sprintf("no %ss were found, no messages to generate", r.action.Source.Entity),
		})
		return r.sm.to(StateSucceeded)
	}

	msgs, err := execmsg.Build(r.deps.Account.Address(), r.params.Contract, res.IDs, r.action.Template)
	if err != nil {
		return r.fail(err)
	}
	r.outcome.Messages = len(msgs)
	if r.deps.Metrics != nil {
		r.deps.Metrics.SetMessages(len(msgs))
	}
	r.obs.Observe(observe.Event{
		Phase:   observe.PhaseBuild,
		Level:   observe.LevelInfo,
		Message: "generated execute messages",
		Count:   len(msgs),
		Fields:  map[string]any{"action": r.action.Name},
	})

	plan := r.deps.Estimator.Estimate(len(msgs))
	r.outcome.Fee = plan
	if r.deps.Metrics != nil {
		amount, _ := plan.Amount.ToLegacyDec().Float64()
		r.deps.Metrics.SetFee(plan.Denom, amount)
	}
	r.obs.Observe(observe.Event{
		Phase:   observe.PhaseFee,
		Level:   observe.LevelInfo,
		Message: "calculated fee",
		Count:   len(msgs),
		Fields:  map[string]any{"fee": plan.Coins().String(), "gas": plan.GasLimit},
	})

	if err := r.sm.to(StatePreviewing); err != nil {
		return err
	}

	path, err := confirm.WritePreview(r.params.OutputDir, r.action.PreviewPrefix, r.now(), confirm.Preview{
		RunID:           r.outcome.RunID,
		RPCEndpoint:     r.params.RPCEndpoint,
		ContractRole:    r.action.ContractRole,
		ContractAddress: r.params.Contract,
		SenderAddress:   r.deps.Account.Address(),
		AccountIndex:    r.deps.Account.AccountIndex(),
		HDPath:          r.deps.Account.HDPath(),
		Fee:             plan,
		Memo:            r.action.Memo,
		Messages:        msgs,
		Partial:         res.Partial,
	})
	if err != nil {
		return r.fail(err)
	}
	r.outcome.PreviewPath = path
	r.obs.Observe(observe.Event{
		Phase:   observe.PhasePreview,
		Level:   observe.LevelInfo,
		Message: "transaction messages preview saved",
		Count:   len(msgs),
		Fields:  map[string]any{"path": path, "run_id": r.outcome.RunID},
	})
	fmt.Fprintf(r.out, "Transaction messages preview saved to: %s\n", path)
	fmt.Fprintln(r.out, "CRITICAL: Review this JSON file carefully before proceeding to sign and broadcast.")
	if res.Partial {
		fmt.Fprintf(r.out, "WARNING: pagination stopped early, the %s list may be incomplete.\n", r.action.Source.Entity)
	}

	if err := r.sm.to(StateAwaitingConfirmation); err != nil {
		return err
	}

	question := r.action.Question(len(msgs), len(res.IDs), r.params.Contract, r.params.RPCEndpoint)
	if err := confirm.Gate(r.deps.In, r.out, question, types.AffirmativeToken); err != nil {
		r.obs.Observe(observe.Event{Phase: observe.PhaseConfirm, Level: observe.LevelInfo, Message: "operation cancelled by the user"})
		if terr := r.sm.to(StateCancelled); terr != nil {
			return errors.Join(err, terr)
		}
		return err
	}

	if err := r.sm.to(StateBroadcasting); err != nil {
		return err
	}
	r.obs.Observe(observe.Event{
		Phase:   observe.PhaseBroadcast,
		Level:   observe.LevelInfo,
		Message: "signing and broadcasting, confirm on the signing device",
		Count:   len(msgs),
	})

	start := r.now()
	result, err := r.deps.Broadcaster.Broadcast(ctx, msgs, plan, r.action.Memo)
	if r.deps.Metrics != nil {
		r.deps.Metrics.ObserveBroadcast(r.now().Sub(start), err == nil)
	}
	r.outcome.Broadcast = result
	if err != nil {
		fields := map[string]any{"error": err.Error()}
		if result != nil {
			fields["tx_hash"] = result.TxHash
			fields["code"] = result.Code
			fields["raw_log"] = result.RawLog
		}
		r.obs.Observe(observe.Event{Phase: observe.PhaseBroadcast, Level: observe.LevelError, Message: "transaction failed", Fields: fields})
		return r.fail(err)
	}

	fields := map[string]any{"tx_hash": result.TxHash}
	if result.Included {
		fields["height"] = result.Height
	} else {
		r.obs.Observe(observe.Event{
			Phase:   observe.PhaseBroadcast,
			Level:   observe.LevelWarn,
			Message: "transaction accepted but inclusion was not confirmed",
			Fields:  map[string]any{"tx_hash": result.TxHash},
		})
	}
	r.obs.Observe(observe.Event{Phase: observe.PhaseBroadcast, Level: observe.LevelInfo, Message: "transaction broadcasted successfully", Fields: fields})
	fmt.Fprintf(r.out, "Transaction broadcasted successfully! Hash: %s\n", result.TxHash)

	return r.sm.to(StateSucceeded)
}

// IsCancelled reports whether err ended a run at the confirmation gate.
func IsCancelled(err error) bool {
	return errors.Is(err, types.ErrCancelled)
}
