package wallet

import (
	"github/chapool/wallet-txengine/internal/wallet"
)

// TransactionItem is the API view of a stored transaction.
type TransactionItem struct {
	ID          string `json:"id"`
	Hash        string `json:"hash"`
	Chain       string `json:"chain"`
	AssetID     string `json:"assetId"`
	FeeAssetID  string `json:"feeAssetId"`
	From        string `json:"from"`
	To          string `json:"to"`
	Type        string `json:"type"`
	State       string `json:"state"`
	Fee         string `json:"fee"`
	Value       string `json:"value"`
	Memo        string `json:"memo,omitempty"`
	Direction   string `json:"direction"`
	BlockNumber string `json:"blockNumber,omitempty"`
	CreatedAt   int64  `json:"createdAt"`

	Swap *SwapItem `json:"swap,omitempty"`
}

type SwapItem struct {
	FromAsset  string `json:"fromAsset"`
	ToAsset    string `json:"toAsset"`
	FromAmount string `json:"fromAmount"`
	ToAmount   string `json:"toAmount"`
}

type GetTransactionsResponse struct {
	Transactions []*TransactionItem `json:"transactions"`
}

// ChainItem reports a configured chain and which roles the registry covers for it.
type ChainItem struct {
	Chain     string `json:"chain"`
	Name      string `json:"name"`
	Family    string `json:"family"`
	Symbol    string `json:"symbol"`
	Decimals  int32  `json:"decimals"`
	Sign      bool   `json:"sign"`
	Broadcast bool   `json:"broadcast"`
	Status    bool   `json:"status"`
}

type GetChainsResponse struct {
	Chains []*ChainItem `json:"chains"`
}

func transactionToItem(tx *wallet.Transaction) *TransactionItem {
	item := &TransactionItem{
		ID:          tx.ID,
		Hash:        tx.Hash,
		Chain:       tx.Chain().String(),
		AssetID:     tx.AssetID.String(),
		FeeAssetID:  tx.FeeAssetID.String(),
		From:        tx.Owner,
		To:          tx.Recipient,
		Type:        string(tx.Type),
		State:       string(tx.State),
		Fee:         tx.Fee,
		Value:       tx.Value,
		Memo:        tx.Memo,
		Direction:   string(tx.Direction),
		BlockNumber: tx.BlockNumber,
		CreatedAt:   tx.CreatedAt,
	}

	if tx.Swap != nil {
		item.Swap = &SwapItem{
			FromAsset:  tx.Swap.FromAsset.String(),
			ToAsset:    tx.Swap.ToAsset.String(),
			FromAmount: tx.Swap.FromAmount,
			ToAmount:   tx.Swap.ToAmount,
		}
	}

	return item
}
