// Package enumerator exhaustively lists contract entities through a cursor-paginated
// smart query.
package enumerator

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"

	"github.com/MANTRA-Chain/mantra-dex/pkg/contract"
	"github.com/MANTRA-Chain/mantra-dex/pkg/observe"
	"github.com/MANTRA-Chain/mantra-dex/types"
)

// Result is the outcome of one enumeration pass.
type Result struct {
	// IDs holds the identifiers in encounter order, without duplicates.
	IDs []string
	// Queries is the number of page queries issued.
	Queries int
	// Partial is set when pagination stopped because a full page ended with a
	// record whose cursor could not be read. IDs is then possibly incomplete.
	Partial bool
	// LastCursor is the last start_after value sent, empty if only one page was read.
	LastCursor string
	// Skipped counts records that carried no identifier.
	Skipped int
}

// Enumerator pages through a Source until the contract reports the last page.
type Enumerator struct {
	querier  contract.Querier
	contract string
	limit    uint32
	observer observe.Observer
}

// New creates an Enumerator over contractAddr. limit is the requested page size.
func New(q contract.Querier, contractAddr string, limit uint32, obs observe.Observer) *Enumerator {
	if limit == 0 {
		limit = types.DefaultPageLimit
	}
	if obs == nil {
		obs = observe.Nop
	}
	return &Enumerator{
		querier:  q,
		contract: contractAddr,
		limit:    limit,
		observer: obs,
	}
}

// Enumerate collects every identifier exposed by src, starting after startAfter
// (empty for the beginning). A malformed response aborts the pass with
// ErrMalformedResponse and no partial result.
func (e *Enumerator) Enumerate(ctx context.Context, src Source, startAfter string) (Result, error) {
	var (
		res    Result
		seen   = make(map[string]struct{})
		cursor = startAfter
	)

	e.observer.Observe(observe.Event{
		Phase:   observe.PhaseEnumerate,
		Level:   observe.LevelInfo,
		Message: fmt.Sprintf("querying %ss", src.Entity),
		Cursor:  cursor,
		Fields:  map[string]any{"contract": e.contract, "limit": e.limit},
	})

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		raw, err := e.querier.QuerySmart(ctx, e.contract, src.queryMsg(e.limit, cursor))
		res.Queries++
		if err != nil {
			return Result{}, err
		}

		records, ok := src.records(raw)
		if !ok {
			return Result{}, errorsmod.Wrapf(types.ErrMalformedResponse,
				"expected a response with a '%s' array from %q query, got %s", src.Field, src.Query, truncate(raw))
		}

		if len(records) == 0 {
			msg := "reached end of " + src.Entity + " list"
			if res.Queries == 1 {
				msg = "no " + src.Entity + "s found in the contract"
			}
			e.observer.Observe(observe.Event{Phase: observe.PhaseEnumerate, Level: observe.LevelInfo, Message: msg, Total: len(res.IDs), Cursor: cursor})
			break
		}

		for _, record := range records {
			id, ok := stringAt(record, src.IDPath)
			if !ok {
				res.Skipped++
				e.observer.Observe(observe.Event{
					Phase:   observe.PhaseEnumerate,
					Level:   observe.LevelWarn,
					Message: src.Entity + " record without identifier skipped",
					Fields:  map[string]any{"record": truncate(record)},
				})
				continue
			}
			if _, dup := seen[id]; dup {
				e.observer.Observe(observe.Event{
					Phase:   observe.PhaseEnumerate,
					Level:   observe.LevelWarn,
					Message: "duplicate " + src.Entity + " identifier ignored",
					Fields:  map[string]any{"identifier": id},
				})
				continue
			}
			seen[id] = struct{}{}
			res.IDs = append(res.IDs, id)
		}

		e.observer.Observe(observe.Event{
			Phase:   observe.PhaseEnumerate,
			Level:   observe.LevelInfo,
			Message: "fetched page",
			Count:   len(records),
			Total:   len(res.IDs),
			Cursor:  cursor,
		})

		if uint32(len(records)) < e.limit {
			break
		}

		next, ok := stringAt(records[len(records)-1], src.CursorPath)
		if !ok || next == cursor {
			res.Partial = true
			e.observer.Observe(observe.Event{
				Phase:   observe.PhaseEnumerate,
				Level:   observe.LevelWarn,
				Message: "cannot paginate further: last " + src.Entity + " of a full page has no usable cursor, result may be incomplete",
				Total:   len(res.IDs),
				Cursor:  cursor,
			})
			break
		}
		cursor = next
		res.LastCursor = next
	}

	e.observer.Observe(observe.Event{
		Phase:   observe.PhaseEnumerate,
		Level:   observe.LevelInfo,
		Message: "finished querying",
		Count:   res.Queries,
		Total:   len(res.IDs),
		Fields:  map[string]any{"partial": res.Partial, "skipped": res.Skipped},
	})

	return res, nil
}

const maxLoggedBytes = 512

func truncate(raw []byte) string {
	if len(raw) <= maxLoggedBytes {
		return string(raw)
	}
	return string(raw[:maxLoggedBytes]) + "..."
}
