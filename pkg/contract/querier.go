// Package contract provides read access to CosmWasm smart contracts.
package contract

import (
	"context"
	"encoding/json"
	"fmt"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	gogogrpc "github.com/cosmos/gogoproto/grpc"
	"golang.org/x/time/rate"
)

// Querier runs smart queries against a contract and returns the raw JSON response.
type Querier interface {
	QuerySmart(ctx context.Context, contract string, msg any) (json.RawMessage, error)
}

// QuerierFunc adapts a function to the Querier interface.
type QuerierFunc func(ctx context.Context, contract string, msg any) (json.RawMessage, error)

// QuerySmart implements Querier.
func (f QuerierFunc) QuerySmart(ctx context.Context, contract string, msg any) (json.RawMessage, error) {
	return f(ctx, contract, msg)
}

// WasmQuerier queries contracts through the wasm gRPC query service. Any
// gogoproto ClientConn works, including a cosmos-sdk client.Context.
type WasmQuerier struct {
	client  wasmtypes.QueryClient
	limiter *rate.Limiter
}

// NewWasmQuerier creates a WasmQuerier. perSecond limits the query rate; zero or
// less means unlimited.
func NewWasmQuerier(conn gogogrpc.ClientConn, perSecond float64) *WasmQuerier {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &WasmQuerier{
		client:  wasmtypes.NewQueryClient(conn),
		limiter: limiter,
	}
}

// QuerySmart implements Querier.
func (q *WasmQuerier) QuerySmart(ctx context.Context, contract string, msg any) (json.RawMessage, error) {
	queryData, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	if err := q.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := q.client.SmartContractState(ctx, &wasmtypes.QuerySmartContractStateRequest{
		Address:   contract,
		QueryData: queryData,
	})
	if err != nil {
		return nil, fmt.Errorf("smart query %s on %s: %w", queryData, contract, err)
	}

	return json.RawMessage(res.Data), nil
}
