package broadcast

import (
	"github.com/cosmos/cosmos-sdk/client"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtx "github.com/cosmos/cosmos-sdk/x/auth/tx"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// ClientChain implements Chain over a cosmos-sdk client.Context. The context must
// carry a node client, an interface registry and a tx config.
type ClientChain struct {
	clientCtx client.Context
}

var _ Chain = ClientChain{}

// NewClientChain wraps clientCtx.
func NewClientChain(clientCtx client.Context) ClientChain {
	return ClientChain{clientCtx: clientCtx}
}

func (c ClientChain) AccountNumberSequence(addr sdk.AccAddress) (uint64, uint64, error) {
	return authtypes.AccountRetriever{}.GetAccountNumberSequence(c.clientCtx, addr)
}

func (c ClientChain) BroadcastSync(txBytes []byte) (*sdk.TxResponse, error) {
	return c.clientCtx.BroadcastTxSync(txBytes)
}

func (c ClientChain) QueryTx(hash string) (*sdk.TxResponse, error) {
	return authtx.QueryTx(c.clientCtx, hash)
}
