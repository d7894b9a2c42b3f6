package enumerator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MANTRA-Chain/mantra-dex/pkg/contract"
	"github.com/MANTRA-Chain/mantra-dex/pkg/observe"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

const poolManager = "mantra1poolmanager"

// fakeContract serves a fixed record list the way the pool and farm managers do:
// records strictly after start_after, at most limit of them.
type fakeContract struct {
	field   string
	records []json.RawMessage
	idOf    func(json.RawMessage) string

	calls []map[string]any
}

func (f *fakeContract) QuerySmart(_ context.Context, _ string, msg any) (json.RawMessage, error) {
	bz, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(bz, &decoded); err != nil {
		return nil, err
	}

	var params map[string]any
	for _, p := range decoded {
		params = p
	}
	f.calls = append(f.calls, params)

	limit := int(params["limit"].(float64))
	start := 0
	if after, ok := params["start_after"].(string); ok {
		start = len(f.records)
		for i, r := range f.records {
			if f.idOf(r) == after {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(f.records) {
		end = len(f.records)
	}
	page := f.records[start:end]
	if page == nil {
		page = []json.RawMessage{}
	}
	return json.Marshal(map[string]any{f.field: page})
}

func poolRecord(id string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"pool_info":{"pool_identifier":%q,"asset_denoms":["uom","uusdc"]},"total_share":{"denom":"lp","amount":"1"}}`, id))
}

func poolID(r json.RawMessage) string {
	id, _ := stringAt(r, PoolSource.IDPath)
	return id
}

func newPoolContract(n int) *fakeContract {
	f := &fakeContract{field: "pools", idOf: poolID}
	for i := 1; i <= n; i++ {
		f.records = append(f.records, poolRecord(fmt.Sprintf("p.%03d", i)))
	}
	return f
}

func TestEnumerate150Pools(t *testing.T) {
	fake := newPoolContract(150)

	res, err := New(fake, poolManager, 100, nil).Enumerate(context.Background(), PoolSource, "")
	require.NoError(t, err)

	require.Len(t, res.IDs, 150)
	require.Equal(t, 2, res.Queries)
	require.Len(t, fake.calls, 2)
	require.NotContains(t, fake.calls[0], "start_after")
	require.Equal(t, "p.100", fake.calls[1]["start_after"])
	require.Equal(t, "p.001", res.IDs[0])
	require.Equal(t, "p.150", res.IDs[149])
	require.False(t, res.Partial)
	require.Equal(t, "p.100", res.LastCursor)
}

func TestEnumerateExactMultipleOfLimit(t *testing.T) {
	fake := newPoolContract(200)

	res, err := New(fake, poolManager, 100, nil).Enumerate(context.Background(), PoolSource, "")
	require.NoError(t, err)
	require.Len(t, res.IDs, 200)
	// the third page comes back empty and ends the pass
	require.Equal(t, 3, res.Queries)
	require.False(t, res.Partial)
}

func TestEnumerateEmptyFirstPage(t *testing.T) {
	fake := newPoolContract(0)
	rec := &observe.Recorder{}

	res, err := New(fake, poolManager, 100, rec).Enumerate(context.Background(), PoolSource, "")
	require.NoError(t, err)
	require.Empty(t, res.IDs)
	require.Equal(t, 1, res.Queries)
	require.Len(t, fake.calls, 1)
	require.Empty(t, rec.Warnings())
}

func TestEnumerateStartAfter(t *testing.T) {
	fake := newPoolContract(5)

	res, err := New(fake, poolManager, 100, nil).Enumerate(context.Background(), PoolSource, "p.003")
	require.NoError(t, err)
	require.Equal(t, []string{"p.004", "p.005"}, res.IDs)
	require.Equal(t, "p.003", fake.calls[0]["start_after"])
}

func TestEnumerateFarms(t *testing.T) {
	fake := &fakeContract{
		field: "farms",
		idOf: func(r json.RawMessage) string {
			id, _ := stringAt(r, FarmSource.IDPath)
			return id
		},
	}
	for i := 0; i < 3; i++ {
		fake.records = append(fake.records, json.RawMessage(fmt.Sprintf(`{"identifier":"m-farm-%d","owner":"mantra1owner"}`, i)))
	}

	res, err := New(fake, "mantra1farmmanager", 2, nil).Enumerate(context.Background(), FarmSource, "")
	require.NoError(t, err)
	require.Equal(t, []string{"m-farm-0", "m-farm-1", "m-farm-2"}, res.IDs)
	require.Equal(t, 2, res.Queries)
	require.Equal(t, "m-farm-1", fake.calls[1]["start_after"])
}

func TestEnumerateMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{"missing field", `{"farms":[]}`},
		{"null field", `{"pools":null}`},
		{"object field", `{"pools":{"pool_info":{}}}`},
		{"not an object", `[]`},
		{"invalid json", `{"pools":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := contract.QuerierFunc(func(context.Context, string, any) (json.RawMessage, error) {
				return json.RawMessage(tt.resp), nil
			})

			res, err := New(q, poolManager, 100, nil).Enumerate(context.Background(), PoolSource, "")
			require.ErrorIs(t, err, types.ErrMalformedResponse)
			require.Empty(t, res.IDs)
		})
	}
}

func TestEnumerateQueryError(t *testing.T) {
	boom := errors.New("connection refused")
	q := contract.QuerierFunc(func(context.Context, string, any) (json.RawMessage, error) {
		return nil, boom
	})

	_, err := New(q, poolManager, 100, nil).Enumerate(context.Background(), PoolSource, "")
	require.ErrorIs(t, err, boom)
}

func TestEnumerateMissingCursorIsPartial(t *testing.T) {
	pages := []string{
		`{"pools":[{"pool_info":{"pool_identifier":"a"}},{"total_share":{}}]}`,
	}
	calls := 0
	q := contract.QuerierFunc(func(context.Context, string, any) (json.RawMessage, error) {
		calls++
		return json.RawMessage(pages[0]), nil
	})
	rec := &observe.Recorder{}

	res, err := New(q, poolManager, 2, rec).Enumerate(context.Background(), PoolSource, "")
	require.NoError(t, err)
	require.True(t, res.Partial)
	require.Equal(t, []string{"a"}, res.IDs)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, 1, calls)
	// one warning for the skipped record, one for the stalled pagination
	require.Len(t, rec.Warnings(), 2)
}

func TestEnumerateRepeatedCursorIsPartial(t *testing.T) {
	q := contract.QuerierFunc(func(context.Context, string, any) (json.RawMessage, error) {
		return json.RawMessage(`{"pools":[{"pool_info":{"pool_identifier":"a"}},{"pool_info":{"pool_identifier":"b"}}]}`), nil
	})

	res, err := New(q, poolManager, 2, nil).Enumerate(context.Background(), PoolSource, "")
	require.NoError(t, err)
	require.True(t, res.Partial)
	require.Equal(t, []string{"a", "b"}, res.IDs)
	require.Equal(t, 2, res.Queries)
}

func TestEnumerateDropsDuplicates(t *testing.T) {
	q := contract.QuerierFunc(func(context.Context, string, any) (json.RawMessage, error) {
		return json.RawMessage(`{"farms":[{"identifier":"x"},{"identifier":"y"},{"identifier":"x"}]}`), nil
	})
	rec := &observe.Recorder{}

	res, err := New(q, "mantra1farmmanager", 100, rec).Enumerate(context.Background(), FarmSource, "")
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, res.IDs)
	require.Len(t, rec.Warnings(), 1)
}

func TestEnumerateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newPoolContract(10), poolManager, 100, nil).Enumerate(ctx, PoolSource, "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueryMsg(t *testing.T) {
	bz, err := json.Marshal(FarmSource.queryMsg(100, ""))
	require.NoError(t, err)
	require.JSONEq(t, `{"farms":{"limit":100}}`, string(bz))

	bz, err = json.Marshal(PoolSource.queryMsg(100, "o.uom.uusdc"))
	require.NoError(t, err)
	require.JSONEq(t, `{"pools":{"limit":100,"start_after":"o.uom.uusdc"}}`, string(bz))
}
