package wallet

import "math/big"

// SignerParams is the complete recipe to sign one transaction. It is produced by a
// SignerPreloader, consumed once by a SignClient and never persisted.
type SignerParams struct {
	Intent TransferIntent
	Data   ChainSignData
	Fee    Fee
}

// FeeFor returns the quote for priority p, falling back to the preloaded default.
func (p *SignerParams) FeeFor(priority FeePriority) Fee {
	if p.Data != nil {
		if fee, ok := p.Data.FeeFor(priority); ok {
			return fee
		}
	}

	return p.Fee
}

// FinalAmount is the value actually transferred: for max native transfers the fee is taken out
// of the amount, never below zero.
func (p *SignerParams) FinalAmount(fee Fee) *big.Int {
	amount := new(big.Int)
	if p.Intent.Amount != nil {
		amount.Set(p.Intent.Amount)
	}

	if !p.Intent.UseMaxAmount || !p.Intent.AssetID.IsNative() || fee.Amount == nil {
		return amount
	}

	amount.Sub(amount, fee.Amount)
	if amount.Sign() < 0 {
		amount.SetInt64(0)
	}

	return amount
}
