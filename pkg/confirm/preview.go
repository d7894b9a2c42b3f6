// Package confirm implements the operator gate placed in front of every irreversible
// broadcast: a preview file on disk, then a single-line prompt.
package confirm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/MANTRA-Chain/mantra-dex/pkg/execmsg"
	"github.com/MANTRA-Chain/mantra-dex/pkg/fee"
)

// executeTypeURL is the type URL recorded for every previewed message.
const executeTypeURL = "/cosmwasm.wasm.v1.MsgExecuteContract"

// Preview is the action set written to disk before the operator is asked to confirm.
type Preview struct {
	RunID           string
	RPCEndpoint     string
	ContractRole    string
	ContractAddress string
	SenderAddress   string
	AccountIndex    uint32
	HDPath          string
	Fee             fee.Plan
	Memo            string
	Messages        []sdk.Msg
	// Partial marks an enumeration that stopped before the end of the list.
	Partial bool
}

// PreviewMessage is the JSON shape of one previewed message.
type PreviewMessage struct {
	TypeURL string              `json:"typeUrl"`
	Value   PreviewMessageValue `json:"value"`
}

// PreviewMessageValue mirrors MsgExecuteContract with the payload left as JSON.
type PreviewMessageValue struct {
	Sender   string          `json:"sender"`
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Funds    sdk.Coins       `json:"funds"`
}

type previewFee struct {
	Amount sdk.Coins `json:"amount"`
	Gas    string    `json:"gas"`
}

// NewRunID returns a fresh identifier for one pipeline run.
func NewRunID() string {
	return uuid.NewString()
}

// MarshalJSON renders the preview with the contract address keyed by its role, e.g.
// "farmManagerAddress".
func (p Preview) MarshalJSON() ([]byte, error) {
	msgs := make([]PreviewMessage, 0, len(p.Messages))
	for _, m := range execmsg.Messages(p.Messages) {
		funds := m.Funds
		if funds == nil {
			funds = sdk.Coins{}
		}
		msgs = append(msgs, PreviewMessage{
			TypeURL: executeTypeURL,
			Value: PreviewMessageValue{
				Sender:   m.Sender,
				Contract: m.Contract,
				Msg:      json.RawMessage(m.Msg),
				Funds:    funds,
			},
		})
	}

	// encoding/json sorts map keys, so build the document field by field to keep
	// the operator-facing order.
	doc := orderedDoc{
		{"runId", p.RunID},
		{"rpcEndpoint", p.RPCEndpoint},
		{p.ContractRole + "Address", p.ContractAddress},
		{"senderAddress", p.SenderAddress},
		{"accountIndexUsed", p.AccountIndex},
		{"hdPathUsed", p.HDPath},
		{"messagesCount", len(msgs)},
	}
	if p.Partial {
		doc = append(doc, field{"partialEnumeration", true})
	}
	doc = append(doc,
		field{"fee", previewFee{Amount: p.Fee.Coins(), Gas: fmt.Sprintf("%d", p.Fee.GasLimit)}},
		field{"memo", p.Memo},
		field{"generatedMessages", msgs},
	)
	return doc.MarshalJSON()
}

type field struct {
	key   string
	value any
}

type orderedDoc []field

func (d orderedDoc) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, f := range d {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", f.key, err)
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

// PreviewFileName returns "<prefix>_<unix-ms>.json".
func PreviewFileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%d.json", prefix, now.UnixMilli())
}

// WritePreview writes p to dir under a timestamp-qualified name and returns the
// path. The file is created exclusively and never overwritten.
func WritePreview(dir, prefix string, now time.Time, p Preview) (string, error) {
	bz, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding preview: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, PreviewFileName(prefix, now))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating preview file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(bz, '\n')); err != nil {
		return "", fmt.Errorf("writing preview file: %w", err)
	}
	return path, f.Sync()
}
