package enumerator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// For any record count and page size the pass returns every identifier once, in
// contract order. A page shorter than the limit is final, so a count that is an exact
// multiple of the limit costs one extra empty query.
func TestEnumerateExhaustiveProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 350).Draw(rt, "records")
		limit := rapid.IntRange(1, 100).Draw(rt, "limit")

		fake := newPoolContract(n)
		res, err := New(fake, poolManager, uint32(limit), nil).Enumerate(context.Background(), PoolSource, "")
		require.NoError(rt, err)

		require.Len(rt, res.IDs, n)
		for i, id := range res.IDs {
			require.Equal(rt, fmt.Sprintf("p.%03d", i+1), id)
		}

		require.Equal(rt, n/limit+1, res.Queries)
		require.False(rt, res.Partial)
	})
}

func TestEnumerateNoDuplicatesProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c", "d", "e"}), 0, 50).Draw(rt, "ids")

		fake := &fakeContract{field: "pools", idOf: poolID}
		for _, id := range ids {
			fake.records = append(fake.records, poolRecord(id))
		}

		res, err := New(fake, poolManager, 100, nil).Enumerate(context.Background(), PoolSource, "")
		require.NoError(rt, err)

		seen := map[string]bool{}
		for _, id := range res.IDs {
			require.False(rt, seen[id], "duplicate %s", id)
			seen[id] = true
		}
		for _, id := range ids {
			require.True(rt, seen[id])
		}
	})
}
