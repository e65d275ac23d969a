// Package bitcoin implements the transaction roles for Bitcoin, Litecoin and Dogecoin.
package bitcoin

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

// rbfSequence signals replace-by-fee.
const rbfSequence = wire.MaxTxInSequenceNum - 2

// Client implements every transaction role for one Bitcoin family chain.
type Client struct {
	cfg  *chain.Config
	net  *network
	node Node
}

func New(cfg *chain.Config, n Node) (*Client, error) {
	net, err := networkFor(cfg.Chain)
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, net: net, node: n}, nil
}

func (c *Client) Chain() chain.Chain {
	return c.cfg.Chain
}

// Preload fetches the UTXO set and per-tier fee rates concurrently, then plans each tier.
func (c *Client) Preload(ctx context.Context, intent wallet.TransferIntent) (*wallet.SignerParams, error) {
	var (
		utxos []wallet.UTXO
		rates map[wallet.FeePriority]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		utxos, err = c.node.UTXOs(gctx, intent.From)
		return err
	})
	g.Go(func() error {
		var err error
		rates, err = c.byteFees(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	fees, err := c.planFees(intent, utxos, rates)
	if err != nil {
		return nil, wallet.NewPreloadError(c.Chain(), err, "")
	}

	data := wallet.UTXOSignData{FeeSet: fees, UTXOs: utxos}

	return &wallet.SignerParams{Intent: intent, Data: data, Fee: data.Default()}, nil
}

// CalculateFees quotes every tier against the sender's current UTXO set.
func (c *Client) CalculateFees(ctx context.Context, intent wallet.TransferIntent) ([]wallet.Fee, error) {
	params, err := c.Preload(ctx, intent)
	if err != nil {
		return nil, err
	}

	data, _ := params.Data.(wallet.UTXOSignData)

	return data.FeeSet, nil
}

// byteFees converts the node's per-kB estimates to satoshi per vbyte, rounding up and
// clamping to the chain minimum.
func (c *Client) byteFees(ctx context.Context) (map[wallet.FeePriority]int64, error) {
	var mu sync.Mutex
	rates := make(map[wallet.FeePriority]int64, len(c.net.targets))

	g, gctx := errgroup.WithContext(ctx)
	for priority, blocks := range c.net.targets {
		g.Go(func() error {
			perKB, err := c.node.EstimateFee(gctx, blocks)
			if err != nil {
				return err
			}

			//nolint:mnd
			perByte := new(big.Int).Add(perKB, big.NewInt(999))
			perByte.Div(perByte, big.NewInt(1000))

			rate := c.net.minByteFee
			if perByte.IsInt64() && perByte.Int64() > rate {
				rate = perByte.Int64()
			}

			mu.Lock()
			rates[priority] = rate
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rates, nil
}

func (c *Client) planFees(intent wallet.TransferIntent, utxos []wallet.UTXO, rates map[wallet.FeePriority]int64) (wallet.FeeSet, error) {
	amount, err := satoshis(intent.Amount)
	if err != nil {
		return nil, err
	}

	fees := make(wallet.FeeSet, 0, len(rates))
	for _, priority := range wallet.FeePriorities() {
		rate, ok := rates[priority]
		if !ok {
			continue
		}

		p, err := c.net.buildPlan(utxos, amount, rate, intent.UseMaxAmount)
		if err != nil {
			return nil, err
		}

		fees = append(fees, wallet.Fee{
			AssetID:  wallet.NativeAsset(c.Chain()),
			Priority: priority,
			Amount:   big.NewInt(p.fee),
			GasLimit: uint64(p.vsize),
			GasPrice: big.NewInt(rate),
		})
	}

	return fees, nil
}

// Sign rebuilds the plan from the preloaded UTXOs and the chosen tier's byte fee and signs
// every input.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.UTXOSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	fee := params.FeeFor(priority)
	if fee.GasPrice == nil || fee.Amount == nil {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrMissingFee, string(priority))
	}

	amount, err := satoshis(params.Intent.Amount)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	p, err := c.net.buildPlan(data.UTXOs, amount, fee.GasPrice.Int64(), params.Intent.UseMaxAmount)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	if p.fee != fee.Amount.Int64() {
		return nil, wallet.NewSignError(c.Chain(), nil, "planned fee differs from quoted fee")
	}

	if len(privateKey) != btcec.PrivKeyBytesLen {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrInvalidKey, "")
	}
	key, pub := btcec.PrivKeyFromBytes(privateKey)

	from, err := c.net.address(pub)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	if !strings.EqualFold(from.EncodeAddress(), params.Intent.From) {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	raw, err := c.signPlan(p, key, from, params.Intent.To)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	return [][]byte{raw}, nil
}

//nolint:varnamelen
func (c *Client) signPlan(p *plan, key *btcec.PrivateKey, from btcutil.Address, to string) ([]byte, error) {
	toAddr, err := btcutil.DecodeAddress(to, c.net.params)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid destination address %s", to)
	}
	if !toAddr.IsForNet(c.net.params) {
		return nil, errors.Errorf("destination %s is not a %s address", to, c.Chain())
	}

	toScript, err := txscript.PayToAddrScript(toAddr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build destination script")
	}

	fromScript, err := txscript.PayToAddrScript(from)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build change script")
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	fetcher := txscript.NewMultiPrevOutFetcher(nil)

	for _, in := range p.inputs {
		hash, err := chainhash.NewHashFromStr(in.TxID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid utxo txid %s", in.TxID)
		}

		outpoint := wire.NewOutPoint(hash, in.Vout)
		txIn := wire.NewTxIn(outpoint, nil, nil)
		txIn.Sequence = rbfSequence
		tx.AddTxIn(txIn)

		fetcher.AddPrevOut(*outpoint, wire.NewTxOut(in.Amount, fromScript))
	}

	tx.AddTxOut(wire.NewTxOut(p.amount, toScript))
	if p.change > 0 {
		tx.AddTxOut(wire.NewTxOut(p.change, fromScript))
	}

	if c.net.segwit {
		hashes := txscript.NewTxSigHashes(tx, fetcher)
		for i, in := range p.inputs {
			witness, err := txscript.WitnessSignature(tx, hashes, i, in.Amount, fromScript, txscript.SigHashAll, key, true)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to sign input %d", i)
			}
			tx.TxIn[i].Witness = witness
		}
	} else {
		for i := range p.inputs {
			script, err := txscript.SignatureScript(tx, i, fromScript, txscript.SigHashAll, key, true)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to sign input %d", i)
			}
			tx.TxIn[i].SignatureScript = script
		}
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to serialize transaction")
	}

	return buf.Bytes(), nil
}

func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	hash, err := c.node.SendTransaction(ctx, signed)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	return hash, nil
}

// GetStatus reports Confirmed once the transaction has a confirmation. Unknown and mempool
// transactions are Pending; Bitcoin transactions cannot revert.
func (c *Client) GetStatus(ctx context.Context, req wallet.StatusRequest) (*wallet.StatusResult, error) {
	info, err := c.node.Transaction(ctx, req.Hash)
	if err != nil {
		return nil, wallet.NewStatusError(c.Chain(), err, "")
	}

	if info == nil || info.Confirmations <= 0 {
		return wallet.PendingStatus(), nil
	}

	result := &wallet.StatusResult{State: wallet.TransactionStateConfirmed}
	if fee, ok := new(big.Int).SetString(info.Fees, 10); ok {
		result.Fee = fee
	}

	return result, nil
}

func satoshis(amount *big.Int) (int64, error) {
	if amount == nil {
		return 0, nil
	}
	if amount.Sign() < 0 || !amount.IsInt64() {
		return 0, errors.Errorf("amount %s out of range", amount)
	}

	return amount.Int64(), nil
}
