package wallet

import (
	"math/big"

	"github/chapool/wallet-txengine/internal/wallet/chain"
)

// TransferIntent is what a caller wants to happen on chain, before any chain data is fetched.
type TransferIntent struct {
	WalletID string
	Type     TransactionType
	AssetID  AssetID
	From     string
	To       string
	Amount   *big.Int
	Memo     string

	// UseMaxAmount sends the whole balance; fee-paying chains deduct the fee from Amount.
	UseMaxAmount bool

	// Data is contract calldata for EVM swaps, approvals and generic calls.
	Data []byte

	Swap *SwapMetadata
}

func (i *TransferIntent) Chain() chain.Chain {
	return i.AssetID.Chain
}

// IsNativeTransfer reports a plain coin transfer with no contract interaction.
func (i *TransferIntent) IsNativeTransfer() bool {
	return i.Type == TransactionTypeTransfer && i.AssetID.IsNative() && len(i.Data) == 0
}
