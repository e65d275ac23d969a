package wallet

import (
	"strings"
	"time"

	"github/chapool/wallet-txengine/internal/wallet/chain"
)

type TransactionType string

const (
	TransactionTypeTransfer                TransactionType = "Transfer"
	TransactionTypeSwap                    TransactionType = "Swap"
	TransactionTypeStakeDelegate           TransactionType = "StakeDelegate"
	TransactionTypeStakeUndelegate         TransactionType = "StakeUndelegate"
	TransactionTypeStakeRewards            TransactionType = "StakeRewards"
	TransactionTypeStakeRedelegate         TransactionType = "StakeRedelegate"
	TransactionTypeStakeWithdraw           TransactionType = "StakeWithdraw"
	TransactionTypeStakeFreeze             TransactionType = "StakeFreeze"
	TransactionTypeStakeUnfreeze           TransactionType = "StakeUnfreeze"
	TransactionTypeTokenApproval           TransactionType = "TokenApproval"
	TransactionTypeAssetActivation         TransactionType = "AssetActivation"
	TransactionTypeTransferNFT             TransactionType = "TransferNFT"
	TransactionTypeSmartContractCall       TransactionType = "SmartContractCall"
	TransactionTypePerpetualOpenPosition   TransactionType = "PerpetualOpenPosition"
	TransactionTypePerpetualClosePosition  TransactionType = "PerpetualClosePosition"
	TransactionTypePerpetualModifyPosition TransactionType = "PerpetualModifyPosition"
)

type TransactionState string

const (
	TransactionStatePending   TransactionState = "Pending"
	TransactionStateConfirmed TransactionState = "Confirmed"
	TransactionStateFailed    TransactionState = "Failed"
	TransactionStateReverted  TransactionState = "Reverted"
)

// IsTerminal reports whether the state can no longer change.
func (s TransactionState) IsTerminal() bool {
	return s != TransactionStatePending
}

type TransactionDirection string

const (
	TransactionDirectionIncoming     TransactionDirection = "Incoming"
	TransactionDirectionOutgoing     TransactionDirection = "Outgoing"
	TransactionDirectionSelfTransfer TransactionDirection = "SelfTransfer"
)

// AssetID identifies the native coin of a chain (empty TokenID) or a token on it.
type AssetID struct {
	Chain   chain.Chain
	TokenID string
}

func NativeAsset(c chain.Chain) AssetID {
	return AssetID{Chain: c}
}

func (a AssetID) IsNative() bool {
	return a.TokenID == ""
}

// String renders "<chain>" or "<chain>_<token>".
func (a AssetID) String() string {
	if a.TokenID == "" {
		return string(a.Chain)
	}

	return string(a.Chain) + "_" + a.TokenID
}

// ParseAssetID is the inverse of AssetID.String.
func ParseAssetID(s string) (AssetID, error) {
	name, token, _ := strings.Cut(s, "_")

	c, err := chain.Parse(name)
	if err != nil {
		return AssetID{}, err
	}

	return AssetID{Chain: c, TokenID: token}, nil
}

// SwapMetadata is stored in the swap side table, keyed by transaction id.
type SwapMetadata struct {
	FromAsset  AssetID
	ToAsset    AssetID
	FromAmount string
	ToAmount   string
}

// Transaction is a locally cached transaction record.
type Transaction struct {
	ID          string
	Hash        string
	AssetID     AssetID
	FeeAssetID  AssetID
	Owner       string
	Recipient   string
	Type        TransactionType
	State       TransactionState
	Fee         string // smallest unit
	Value       string // smallest unit
	Memo        string
	Direction   TransactionDirection
	Metadata    []byte
	BlockNumber string
	CreatedAt   int64 // epoch millis

	// Swap is joined from the side table when Type is Swap.
	Swap *SwapMetadata
}

// TransactionID derives the record identifier from chain and chain-native hash.
func TransactionID(c chain.Chain, hash string) string {
	return string(c) + "_" + hash
}

func (t *Transaction) Chain() chain.Chain {
	return t.AssetID.Chain
}

func (t *Transaction) CreatedTime() time.Time {
	return time.UnixMilli(t.CreatedAt)
}

// Age returns how long ago the record was created relative to now.
func (t *Transaction) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedTime())
}

// Clone returns a deep copy so callers can mutate records read from a store.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.Metadata != nil {
		c.Metadata = append([]byte(nil), t.Metadata...)
	}
	if t.Swap != nil {
		swap := *t.Swap
		c.Swap = &swap
	}

	return &c
}

// DirectionFor derives the direction of a transfer on chain c from the owner's point of view.
func DirectionFor(c chain.Chain, owner, from, to string) TransactionDirection {
	switch {
	case c.SameAddress(from, to):
		return TransactionDirectionSelfTransfer
	case c.SameAddress(owner, from):
		return TransactionDirectionOutgoing
	default:
		return TransactionDirectionIncoming
	}
}
