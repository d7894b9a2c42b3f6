package pools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/MANTRA-Chain/mantra-dex/pkg/execmsg"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Record is one deployed pool in the pools output file.
type Record struct {
	Label          string  `json:"label"`
	PoolIdentifier string  `json:"pool_identifier"`
	Assets         []Asset `json:"assets"`
	PoolType       string  `json:"pool_type"`
	LPAsset        string  `json:"lp_asset"`
}

// Output is the per-chain list of deployed pools. Pools are kept as raw JSON and
// unknown top-level keys are carried in Extra, so rewriting the file preserves
// everything it held before.
type Output struct {
	Pools           []json.RawMessage
	Date            string
	ChainID         string
	PoolManagerAddr string
	Extra           map[string]json.RawMessage
}

const (
	keyPools           = "pools"
	keyDate            = "date"
	keyChainID         = "chain_id"
	keyPoolManagerAddr = "pool_manager_addr"
)

// UnmarshalJSON implements json.Unmarshaler.
func (o *Output) UnmarshalJSON(bz []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bz, &fields); err != nil {
		return err
	}

	out := Output{Pools: []json.RawMessage{}, Extra: map[string]json.RawMessage{}}
	for key, raw := range fields {
		var err error
		switch key {
		case keyPools:
			err = json.Unmarshal(raw, &out.Pools)
		case keyDate:
			err = json.Unmarshal(raw, &out.Date)
		case keyChainID:
			err = json.Unmarshal(raw, &out.ChainID)
		case keyPoolManagerAddr:
			err = json.Unmarshal(raw, &out.PoolManagerAddr)
		default:
			out.Extra[key] = raw
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if out.Pools == nil {
		out.Pools = []json.RawMessage{}
	}
	*o = out
	return nil
}

// MarshalJSON implements json.Marshaler. Known keys come first, then the
// preserved keys in sorted order.
func (o Output) MarshalJSON() ([]byte, error) {
	pools := o.Pools
	if pools == nil {
		pools = []json.RawMessage{}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	known := []struct {
		key string
		val any
	}{
		{keyPools, pools},
		{keyDate, o.Date},
		{keyChainID, o.ChainID},
		{keyPoolManagerAddr, o.PoolManagerAddr},
	}
	for _, kv := range known {
		if err := write(kv.key, kv.val); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(o.Extra))
	for k := range o.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, o.Extra[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NewRecord describes the pool created from cfg on poolManager.
func NewRecord(poolManager string, cfg Config) Record {
	return Record{
		Label:          Label(cfg.Denoms()),
		PoolIdentifier: execmsg.PoolIdentifier(cfg.PoolIdentifier),
		Assets:         append([]Asset(nil), cfg.Assets...),
		PoolType:       cfg.DisplayType(),
		LPAsset:        LPAsset(poolManager, cfg.PoolIdentifier),
	}
}

// OutputPath is <scriptsDir>/output/<chainID>_pools.json.
func OutputPath(scriptsDir, chainID string) string {
	return filepath.Join(scriptsDir, "output", chainID+"_pools.json")
}

// FormatDate renders t as an ISO 8601 UTC timestamp with millisecond precision and
// a "+0000" offset.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000") + "+0000"
}

// ReadOutput loads the output file at path. A missing file yields an empty Output.
func ReadOutput(path string) (Output, error) {
	bz, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return Output{Pools: []json.RawMessage{}, Extra: map[string]json.RawMessage{}}, nil
	}
	if err != nil {
		return Output{}, err
	}

	var out Output
	if err := json.Unmarshal(bz, &out); err != nil {
		return Output{}, errorsmod.Wrapf(types.ErrInvalidConfig, "parsing %s: %v", path, err)
	}
	return out, nil
}

// AppendRecord adds rec to the output file at path and refreshes its metadata.
func AppendRecord(path string, rec Record, chainID, poolManager string, now time.Time) (Output, error) {
	out, err := ReadOutput(path)
	if err != nil {
		return Output{}, err
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return Output{}, err
	}
	out.Pools = append(out.Pools, raw)
	out.Date = FormatDate(now)
	out.ChainID = chainID
	out.PoolManagerAddr = poolManager

	bz, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return Output{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Output{}, err
	}
	if err := os.WriteFile(path, bz, 0o644); err != nil {
		return Output{}, err
	}
	return out, nil
}
