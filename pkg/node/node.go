// Package node checks that an RPC endpoint is reachable and usable before any
// signer is opened or query is issued.
package node

import (
	"context"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	rpcclient "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"

	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Status represents the health of the node
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// StatusClient is the subset of the CometBFT RPC client used by the checker.
type StatusClient interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
}

// Report is the result of one pre-flight check.
type Report struct {
	Status          Status
	Message         string
	ChainID         string
	Moniker         string
	LatestHeight    int64
	LatestBlockTime time.Time
	CatchingUp      bool
	Latency         time.Duration
}

// Config holds configuration for the checker
type Config struct {
	// MaxResponseTime bounds the status round-trip.
	MaxResponseTime time.Duration
	// MaxBlockAge marks the node unhealthy when its latest block is older.
	MaxBlockAge time.Duration
	// ExpectChainID, when set, must match the node's network.
	ExpectChainID string
}

// DefaultConfig returns the default checker configuration
func DefaultConfig() Config {
	return Config{
		MaxResponseTime: 10 * time.Second,
		MaxBlockAge:     5 * time.Minute,
	}
}

// Checker runs the pre-flight status check.
type Checker struct {
	client StatusClient
	cfg    Config
	now    func() time.Time
}

// Dial creates a CometBFT HTTP client for rpcURL.
func Dial(rpcURL string) (*rpcclient.HTTP, error) {
	if rpcURL == "" {
		return nil, errorsmod.Wrap(types.ErrInvalidArgs, "RPC endpoint is required")
	}
	c, err := rpcclient.New(rpcURL, "/websocket")
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrNodeUnavailable, "creating RPC client for %s: %v", rpcURL, err)
	}
	return c, nil
}

// NewChecker creates a checker over client.
func NewChecker(client StatusClient, cfg Config) *Checker {
	if cfg.MaxResponseTime <= 0 {
		cfg.MaxResponseTime = DefaultConfig().MaxResponseTime
	}
	return &Checker{client: client, cfg: cfg, now: time.Now}
}

// Check queries the node status. An unreachable node or a chain id mismatch is an
// error; a slow, stale or syncing node is reported as degraded or unhealthy without
// failing, leaving the decision to the caller.
func (c *Checker) Check(ctx context.Context) (Report, error) {
	start := c.now()

	timeoutCtx, cancel := context.WithTimeout(ctx, c.cfg.MaxResponseTime)
	defer cancel()

	status, err := c.client.Status(timeoutCtx)
	latency := c.now().Sub(start)
	if err != nil {
		return Report{Status: StatusUnhealthy, Latency: latency}, errorsmod.Wrapf(types.ErrNodeUnavailable, "RPC connection failed: %v", err)
	}

	r := Report{
		Status:          StatusHealthy,
		Message:         "RPC endpoint is responsive",
		ChainID:         status.NodeInfo.Network,
		Moniker:         status.NodeInfo.Moniker,
		LatestHeight:    status.SyncInfo.LatestBlockHeight,
		LatestBlockTime: status.SyncInfo.LatestBlockTime,
		CatchingUp:      status.SyncInfo.CatchingUp,
		Latency:         latency,
	}

	if c.cfg.ExpectChainID != "" && r.ChainID != c.cfg.ExpectChainID {
		r.Status = StatusUnhealthy
		r.Message = fmt.Sprintf("node serves chain %q, expected %q", r.ChainID, c.cfg.ExpectChainID)
		return r, errorsmod.Wrap(types.ErrInvalidConfig, r.Message)
	}

	blockAge := c.now().Sub(r.LatestBlockTime)
	switch {
	case c.cfg.MaxBlockAge > 0 && !r.LatestBlockTime.IsZero() && blockAge > c.cfg.MaxBlockAge:
		r.Status = StatusUnhealthy
		r.Message = fmt.Sprintf("node is stale (last block %.1f minutes ago)", blockAge.Minutes())
	case r.CatchingUp:
		r.Status = StatusDegraded
		r.Message = "node is catching up with the network"
	case latency > c.cfg.MaxResponseTime/2:
		r.Status = StatusDegraded
		r.Message = "RPC endpoint response time is degraded"
	}

	return r, nil
}
