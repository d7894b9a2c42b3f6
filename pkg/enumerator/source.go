package enumerator

import (
	"bytes"
	"encoding/json"
)

// Source describes one paginated contract query: the query name, the array field of
// its response and where each record keeps its identifier and pagination cursor.
type Source struct {
	// Entity is a human readable name used in events ("farm", "pool").
	Entity string
	// Query is the query message name, sent as {<Query>: {limit, start_after}}.
	Query string
	// Field is the response field holding the array of records.
	Field string
	// IDPath locates the identifier inside a record.
	IDPath []string
	// CursorPath locates the value passed as start_after for the next page.
	CursorPath []string
}

// FarmSource enumerates the farms of a farm manager contract.
var FarmSource = Source{
	Entity:     "farm",
	Query:      "farms",
	Field:      "farms",
	IDPath:     []string{"identifier"},
	CursorPath: []string{"identifier"},
}

// PoolSource enumerates the pools of a pool manager contract.
var PoolSource = Source{
	Entity:     "pool",
	Query:      "pools",
	Field:      "pools",
	IDPath:     []string{"pool_info", "pool_identifier"},
	CursorPath: []string{"pool_info", "pool_identifier"},
}

// queryMsg builds the page request. start_after is omitted on the first page.
func (s Source) queryMsg(limit uint32, startAfter string) map[string]any {
	params := map[string]any{"limit": limit}
	if startAfter != "" {
		params["start_after"] = startAfter
	}
	return map[string]any{s.Query: params}
}

// records extracts the record array from a response. ok is false when the field is
// missing or is not a JSON array.
func (s Source) records(raw json.RawMessage) (records []json.RawMessage, ok bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false
	}

	field, found := envelope[s.Field]
	if !found {
		return nil, false
	}
	field = bytes.TrimSpace(field)
	if len(field) == 0 || field[0] != '[' {
		return nil, false
	}

	if err := json.Unmarshal(field, &records); err != nil {
		return nil, false
	}
	return records, true
}

// stringAt walks path through nested objects and returns the string found there.
func stringAt(record json.RawMessage, path []string) (string, bool) {
	cur := record
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return "", false
		}
		next, found := obj[key]
		if !found {
			return "", false
		}
		cur = next
	}

	var s string
	if err := json.Unmarshal(cur, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}
