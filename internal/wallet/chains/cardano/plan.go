package cardano

import (
	"sort"

	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// plan is the exact input/output set of a transaction. Preload and Sign derive it from the same
// UTXO set, addresses and TTL, so the quoted fee is the fee that gets signed.
type plan struct {
	inputs []wallet.UTXO
	amount uint64
	change uint64
	fee    uint64
	size   int
}

type planner struct {
	from []byte
	to   []byte
	ttl  uint64
}

// draft witness with the real sizes of an ed25519 vkey and signature
var (
	draftKey = make([]byte, 32)
	draftSig = make([]byte, 64)
)

func linearFee(size int) uint64 {
	return uint64(size)*minFeeA + minFeeB
}

// measure returns the encoded size of the signed transaction for p. Output values are upper
// bounds, so the fee may only shrink the encoding.
func (pl planner) measure(p *plan) (int, error) {
	body, err := p.body(pl.from, pl.to, pl.ttl)
	if err != nil {
		return 0, err
	}

	tx, err := encodeTransaction(body, draftKey, draftSig)
	if err != nil {
		return 0, err
	}

	return len(tx), nil
}

// build selects the largest UTXOs first until amount plus fee is covered. Change below the
// minimum output is folded into the fee. With useMax every UTXO is spent to a single output.
func (pl planner) build(utxos []wallet.UTXO, amount uint64, useMax bool) (*plan, error) {
	sorted := make([]wallet.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u.Amount > 0 {
			sorted = append(sorted, u)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount > sorted[j].Amount
		}
		if sorted[i].TxID != sorted[j].TxID {
			return sorted[i].TxID < sorted[j].TxID
		}
		return sorted[i].Vout < sorted[j].Vout
	})

	if useMax {
		return pl.buildMax(sorted)
	}

	if amount < minOutput {
		return nil, errors.Errorf("amount %d is below the minimum output %d", amount, minOutput)
	}

	var total uint64
	for i, u := range sorted {
		total += uint64(u.Amount)
		if total <= amount {
			continue
		}

		inputs := sorted[:i+1]

		withChange := &plan{inputs: inputs, amount: amount, change: total - amount, fee: total - amount}
		size, err := pl.measure(withChange)
		if err != nil {
			return nil, err
		}

		fee := linearFee(size)
		if total >= amount+fee+minOutput {
			return &plan{inputs: inputs, amount: amount, change: total - amount - fee, fee: fee, size: size}, nil
		}

		folded := &plan{inputs: inputs, amount: amount, fee: total - amount}
		if size, err = pl.measure(folded); err != nil {
			return nil, err
		}
		if total-amount >= linearFee(size) {
			folded.size = size
			return folded, nil
		}
	}

	return nil, errors.Wrapf(ErrInsufficientFunds, "balance %d cannot cover %d plus fee", total, amount)
}

func (pl planner) buildMax(utxos []wallet.UTXO) (*plan, error) {
	var total uint64
	for _, u := range utxos {
		total += uint64(u.Amount)
	}

	p := &plan{inputs: utxos, amount: total, fee: total}
	size, err := pl.measure(p)
	if err != nil {
		return nil, err
	}

	fee := linearFee(size)
	if len(utxos) == 0 || total < fee+minOutput {
		return nil, errors.Wrapf(ErrInsufficientFunds, "balance %d cannot cover fee %d", total, fee)
	}

	return &plan{inputs: utxos, amount: total - fee, fee: fee, size: size}, nil
}
