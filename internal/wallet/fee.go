package wallet

import "math/big"

type FeePriority string

const (
	FeePrioritySlow   FeePriority = "Slow"
	FeePriorityNormal FeePriority = "Normal"
	FeePriorityFast   FeePriority = "Fast"
)

// FeePriorities lists the tiers in ascending order.
func FeePriorities() []FeePriority {
	return []FeePriority{FeePrioritySlow, FeePriorityNormal, FeePriorityFast}
}

// Fee is a fee quote in the smallest unit of AssetID.
//
// GasLimit, GasPrice and MinerFee carry the chain-specific breakdown the signer needs:
// gas limit and max fee per gas plus priority tip on EVM chains, planned vbytes and byte fee
// on UTXO chains, compute units and micro-lamport price on Solana.
type Fee struct {
	AssetID  AssetID
	Priority FeePriority
	Amount   *big.Int

	GasLimit uint64
	GasPrice *big.Int
	MinerFee *big.Int
}

// FeeSet holds the quotes computed during preload, one per available priority.
type FeeSet []Fee

// FeeFor returns the quote for priority p.
func (s FeeSet) FeeFor(p FeePriority) (Fee, bool) {
	for _, fee := range s {
		if fee.Priority == p {
			return fee, true
		}
	}

	return Fee{}, false
}

// Default returns the Normal quote, or the first one for single-tier chains.
func (s FeeSet) Default() Fee {
	if fee, ok := s.FeeFor(FeePriorityNormal); ok {
		return fee
	}
	if len(s) > 0 {
		return s[0]
	}

	return Fee{}
}

// SingleFee builds a FeeSet with only a Normal quote.
func SingleFee(asset AssetID, amount *big.Int) FeeSet {
	return FeeSet{{AssetID: asset, Priority: FeePriorityNormal, Amount: amount}}
}
