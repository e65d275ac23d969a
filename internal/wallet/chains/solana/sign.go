package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/memo"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/wallet"
)

// Sign builds a legacy transaction: compute budget instructions, the transfer and an optional
// memo, anchored to the preloaded blockhash.
func (c *Client) Sign(_ context.Context, params *wallet.SignerParams, privateKey []byte, priority wallet.FeePriority) ([][]byte, error) {
	data, ok := params.Data.(wallet.SolanaSignData)
	if !ok {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrWrongSignData, "")
	}

	fee := params.FeeFor(priority)
	if fee.GasPrice == nil || fee.GasLimit == 0 {
		return nil, wallet.NewSignError(c.Chain(), wallet.ErrMissingFee, string(priority))
	}

	key, err := signingKey(privateKey)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	from, to, err := parseParties(params.Intent)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}
	if !key.PublicKey().Equals(from) {
		return nil, wallet.NewSignError(c.Chain(), nil, "from address does not match private key")
	}

	blockhash, err := solana.HashFromBase58(data.RecentBlockhash)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "invalid blockhash"), "")
	}

	instructions, err := c.instructions(params, data, fee, from, to)
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), err, "")
	}

	//nolint:varnamelen
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(from))
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "failed to build transaction"), "")
	}

	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(from) {
			return &key
		}
		return nil
	}); err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "failed to sign transaction"), "")
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, wallet.NewSignError(c.Chain(), errors.Wrap(err, "failed to marshal transaction"), "")
	}

	return [][]byte{raw}, nil
}

func (c *Client) instructions(params *wallet.SignerParams, data wallet.SolanaSignData, fee wallet.Fee, from, to solana.PublicKey) ([]solana.Instruction, error) {
	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(uint32(fee.GasLimit)).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(fee.GasPrice.Uint64()).Build(),
	}

	amount := params.FinalAmount(fee)
	if !amount.IsUint64() {
		return nil, errors.Errorf("amount %s out of range", amount)
	}

	switch {
	case params.Intent.AssetID.IsNative():
		instructions = append(instructions, system.NewTransferInstruction(amount.Uint64(), from, to).Build())
	default:
		mint, err := solana.PublicKeyFromBase58(params.Intent.AssetID.TokenID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid token mint")
		}

		sender, recipient, err := tokenAccounts(from, to, mint)
		if err != nil {
			return nil, err
		}
		if sender.String() != data.SenderTokenAccount || recipient.String() != data.RecipientTokenAccount {
			return nil, errors.New("token accounts do not match preloaded accounts")
		}

		if data.CreateRecipientAccount {
			instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(from, to, mint).Build())
		}
		instructions = append(instructions, token.NewTransferInstruction(amount.Uint64(), sender, recipient, from, nil).Build())
	}

	if params.Intent.Memo != "" {
		instructions = append(instructions, memo.NewMemoInstruction([]byte(params.Intent.Memo), from).Build())
	}

	return instructions, nil
}

// Send submits the transaction and returns its first signature, which is the transaction id.
func (c *Client) Send(ctx context.Context, signed []byte) (string, error) {
	sig, err := c.node.SendTransaction(ctx, signed)
	if err != nil {
		return "", wallet.NewBroadcastError(c.Chain(), err, err.Error())
	}

	return sig.String(), nil
}
