package pipeline

import (
	"fmt"

	"github.com/MANTRA-Chain/mantra-dex/pkg/enumerator"
	"github.com/MANTRA-Chain/mantra-dex/pkg/execmsg"
)

// Action parametrizes the pipeline for one bulk operation.
type Action struct {
	// Name identifies the action in logs and metrics.
	Name string
	// Memo is attached to the transaction.
	Memo string
	// PreviewPrefix is the preview file name without the timestamp suffix.
	PreviewPrefix string
	// ContractRole keys the contract address in the preview ("<role>Address").
	ContractRole string

	Source   enumerator.Source
	Template execmsg.Template

	// Question renders the confirmation prompt.
	Question func(messages, entities int, contractAddr, rpc string) string
}

// CloseFarms closes every farm of a farm manager.
var CloseFarms = Action{
	Name:          "close_farms",
	Memo:          "Emergency: Close all farms",
	PreviewPrefix: "emergency_close_all_farms_tx_preview",
	ContractRole:  "farmManager",
	Source:        enumerator.FarmSource,
	Template:      execmsg.CloseFarm,
	Question: func(messages, entities int, contractAddr, rpc string) string {
		return fmt.Sprintf("\nARE YOU ABSOLUTELY SURE you want to sign (with Ledger) and broadcast %d messages to CLOSE ALL %d farms on %s via %s? (yes/no): ",
			messages, entities, contractAddr, rpc)
	},
}

// DisablePoolFeatures turns off deposits, withdrawals and swaps on every pool of a
// pool manager.
var DisablePoolFeatures = Action{
	Name:          "toggle_pool_features",
	Memo:          "Emergency: Toggle OFF all pool features (disable deposits/withdrawals/swaps)",
	PreviewPrefix: "emergency_toggle_off_features_tx_preview",
	ContractRole:  "poolManager",
	Source:        enumerator.PoolSource,
	Template:      execmsg.DisablePoolFeatures,
	Question: func(messages, entities int, contractAddr, rpc string) string {
		return fmt.Sprintf("\nARE YOU ABSOLUTELY SURE you want to sign (with Ledger) and broadcast %d messages to DISABLE deposits, withdrawals and swaps on ALL %d pools on %s via %s? (yes/no): ",
			messages, entities, contractAddr, rpc)
	},
}
