package bitcoin

import (
	"sort"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// virtual sizes in vbytes
type txSizes struct {
	overhead int64
	input    int64
	output   int64
}

var (
	segwitSizes = txSizes{overhead: 11, input: 68, output: 31}
	legacySizes = txSizes{overhead: 10, input: 148, output: 34}
)

func (n *network) sizes() txSizes {
	if n.segwit {
		return segwitSizes
	}

	return legacySizes
}

func (s txSizes) vsize(inputs, outputs int) int64 {
	return s.overhead + int64(inputs)*s.input + int64(outputs)*s.output
}

// plan is the exact input/output set of a transaction. Preload and Sign both derive it from
// the same UTXO set and byte fee, so the quoted fee is the fee that gets signed.
type plan struct {
	inputs []wallet.UTXO
	amount int64
	change int64
	fee    int64
	vsize  int64
}

// buildPlan selects the largest UTXOs first until amount plus fee is covered. Change below
// the dust limit is folded into the fee. With useMax every UTXO is spent to a single output.
func (n *network) buildPlan(utxos []wallet.UTXO, amount int64, byteFee int64, useMax bool) (*plan, error) {
	if byteFee <= 0 {
		return nil, errors.New("byte fee must be positive")
	}

	sorted := append([]wallet.UTXO(nil), utxos...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount > sorted[j].Amount
		}
		if sorted[i].TxID != sorted[j].TxID {
			return sorted[i].TxID < sorted[j].TxID
		}
		return sorted[i].Vout < sorted[j].Vout
	})

	sizes := n.sizes()

	if useMax {
		var total int64
		for _, u := range sorted {
			total += u.Amount
		}

		vsize := sizes.vsize(len(sorted), 1)
		fee := vsize * byteFee
		if len(sorted) == 0 || total-fee < n.dust {
			return nil, errors.Wrapf(ErrInsufficientFunds, "balance %d cannot cover fee %d", total, fee)
		}

		return &plan{inputs: sorted, amount: total - fee, fee: fee, vsize: vsize}, nil
	}

	if amount < n.dust {
		return nil, errors.Errorf("amount %d is below dust limit %d", amount, n.dust)
	}

	var total int64
	for i, u := range sorted {
		total += u.Amount
		count := i + 1

		vsize := sizes.vsize(count, 2)
		fee := vsize * byteFee
		if total < amount+fee {
			continue
		}

		change := total - amount - fee
		if change < n.dust {
			return &plan{inputs: sorted[:count], amount: amount, fee: total - amount, vsize: sizes.vsize(count, 1)}, nil
		}

		return &plan{inputs: sorted[:count], amount: amount, change: change, fee: fee, vsize: vsize}, nil
	}

	return nil, errors.Wrapf(ErrInsufficientFunds, "balance %d cannot cover %d plus fee", total, amount)
}
