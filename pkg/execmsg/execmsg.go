// Package execmsg builds the execute-contract messages sent by dexops.
package execmsg

import (
	"encoding/json"
	"fmt"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Template renders the execute payload for one entity identifier.
type Template func(id string) any

// Build returns one MsgExecuteContract per identifier, in input order, each targeting
// contractAddr with the payload rendered by tmpl and no funds attached.
func Build(sender, contractAddr string, ids []string, tmpl Template) ([]sdk.Msg, error) {
	msgs := make([]sdk.Msg, 0, len(ids))
	for _, id := range ids {
		msg, err := New(sender, contractAddr, tmpl(id), nil)
		if err != nil {
			return nil, fmt.Errorf("building message for %q: %w", id, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// New encodes payload as the JSON body of a MsgExecuteContract.
func New(sender, contractAddr string, payload any, funds sdk.Coins) (*wasmtypes.MsgExecuteContract, error) {
	bz, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if funds == nil {
		funds = sdk.Coins{}
	}
	return &wasmtypes.MsgExecuteContract{
		Sender:   sender,
		Contract: contractAddr,
		Msg:      wasmtypes.RawContractMessage(bz),
		Funds:    funds,
	}, nil
}

type closeAction struct {
	FarmIdentifier string `json:"farm_identifier"`
}

type farmAction struct {
	Close closeAction `json:"close"`
}

type manageFarm struct {
	Action farmAction `json:"action"`
}

// CloseFarm is the farm manager payload closing one farm.
func CloseFarm(id string) any {
	return map[string]any{
		"manage_farm": manageFarm{Action: farmAction{Close: closeAction{FarmIdentifier: id}}},
	}
}

// FeatureToggle switches the individual features of one pool.
type FeatureToggle struct {
	PoolIdentifier     string `json:"pool_identifier"`
	WithdrawalsEnabled bool   `json:"withdrawals_enabled"`
	DepositsEnabled    bool   `json:"deposits_enabled"`
	SwapsEnabled       bool   `json:"swaps_enabled"`
}

// DisablePoolFeatures is the pool manager payload turning off deposits, withdrawals
// and swaps of one pool.
func DisablePoolFeatures(id string) any {
	return map[string]any{
		"update_config": map[string]any{
			"feature_toggle": FeatureToggle{PoolIdentifier: id},
		},
	}
}

// Messages returns the typed execute messages. Callers that only need sdk.Msg use
// Build directly.
func Messages(msgs []sdk.Msg) []*wasmtypes.MsgExecuteContract {
	out := make([]*wasmtypes.MsgExecuteContract, 0, len(msgs))
	for _, m := range msgs {
		if exec, ok := m.(*wasmtypes.MsgExecuteContract); ok {
			out = append(out, exec)
		}
	}
	return out
}
