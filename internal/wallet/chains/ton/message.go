package ton

import (
	"crypto/ed25519"
	"math/big"

	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	tonwallet "github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github/chapool/wallet-txengine/internal/wallet"
)

// transfer is the single internal message a v4r2 wallet sends.
type transfer struct {
	to     *address.Address
	amount *big.Int
	mode   uint8
	body   *cell.Cell
}

// buildTransfer turns the intent into the wallet's internal message. Native transfers pay amount
// to the recipient (the whole balance when amount is nil); jetton transfers call the sender's
// jetton wallet.
func buildTransfer(intent wallet.TransferIntent, data wallet.TonSignData, amount *big.Int) (*transfer, error) {
	to, err := parseAddress(intent.To)
	if err != nil {
		return nil, err
	}

	var comment *cell.Cell
	if intent.Memo != "" {
		comment, err = tonwallet.CreateCommentCell(intent.Memo)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode comment")
		}
	}

	if intent.AssetID.IsNative() {
		t := &transfer{to: to, amount: amount, mode: sendModeDefault, body: comment}
		if amount == nil {
			t.amount, t.mode = new(big.Int), sendModeAll
		}
		return t, nil
	}

	if amount == nil {
		return nil, errors.New("jetton amount is required")
	}

	from, err := parseAddress(intent.From)
	if err != nil {
		return nil, err
	}
	jettonWallet, err := parseAddress(data.JettonWallet)
	if err != nil {
		return nil, err
	}

	body := cell.BeginCell().
		MustStoreUInt(jettonTransferOp, 32).
		MustStoreUInt(uint64(data.Seqno), 64). // query id
		MustStoreBigCoins(amount).
		MustStoreAddr(to).
		MustStoreAddr(from).     // excess goes back to the sender
		MustStoreBoolBit(false). // no custom payload
		MustStoreBigCoins(big.NewInt(jettonForwardAmount)).
		MustStoreMaybeRef(comment).
		EndCell()

	jettonWallet.SetBounce(true)

	return &transfer{to: jettonWallet, amount: big.NewInt(jettonAttachedAmount), mode: sendModeDefault, body: body}, nil
}

// signingPayload is the v4r2 signed body without its signature.
func signingPayload(t *transfer, data wallet.TonSignData) (*cell.Builder, error) {
	body := t.body
	if body == nil {
		body = cell.BeginCell().EndCell()
	}

	msg, err := tlb.ToCell(&tlb.InternalMessage{
		IHRDisabled: true,
		Bounce:      t.to.IsBounceable(),
		DstAddr:     t.to,
		Amount:      tlb.FromNanoTON(t.amount),
		Body:        body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode internal message")
	}

	return cell.BeginCell().
		MustStoreUInt(tonwallet.DefaultSubwallet, 32).
		MustStoreUInt(uint64(data.ValidUntil), 32).
		MustStoreUInt(uint64(data.Seqno), 32).
		MustStoreUInt(0, 8). // simple send
		MustStoreUInt(uint64(t.mode), 8).
		MustStoreRef(msg), nil
}

// externalMessage wraps the signed body addressed to the sender's wallet. The state init is
// attached while the wallet is not deployed.
func externalMessage(from *address.Address, pub ed25519.PublicKey, payload *cell.Builder, sig []byte, deploy bool) (*cell.Cell, error) {
	body := cell.BeginCell().
		MustStoreSlice(sig, 512).
		MustStoreBuilder(payload).
		EndCell()

	ext := &tlb.ExternalMessage{DstAddr: from, Body: body}
	if deploy {
		state, err := tonwallet.GetStateInit(pub, tonwallet.V4R2, tonwallet.DefaultSubwallet)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build state init")
		}
		ext.StateInit = state
	}

	c, err := tlb.ToCell(ext)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode external message")
	}

	return c, nil
}
