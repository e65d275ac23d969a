package tx

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/util/command"
	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/keyvault"
	"github/chapool/wallet-txengine/internal/wallet/transfer"
)

type sendOptions struct {
	chain    string
	wallet   string
	to       string
	amount   string
	token    string
	decimals int32
	memo     string
	priority string
	max      bool
}

func newSend() *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Signs and broadcasts a transfer from a keystore wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				return runSend(ctx, cmd, s, opts)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.chain, chainFlag, "", "Chain to send on")
	f.StringVar(&opts.wallet, walletFlag, "", "Keystore wallet id to send from")
	f.StringVar(&opts.to, toFlag, "", "Destination address")
	f.StringVar(&opts.amount, amountFlag, "", "Amount in display units, e.g. 0.5")
	f.StringVar(&opts.token, tokenFlag, "", "Token id (contract, mint or issuer) for token transfers")
	f.Int32Var(&opts.decimals, decimalsFlag, -1, "Token decimals, defaults to the chain's native decimals")
	f.StringVar(&opts.memo, memoFlag, "", "Memo or destination tag")
	f.StringVar(&opts.priority, priorityFlag, "normal", "Fee priority: slow, normal or fast")
	f.BoolVar(&opts.max, maxFlag, false, "Send the whole balance, the fee is deducted from the amount")

	for _, name := range []string{chainFlag, walletFlag, toFlag, amountFlag} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runSend(ctx context.Context, cmd *cobra.Command, s *api.Server, opts sendOptions) error {
	c, err := chain.Parse(opts.chain)
	if err != nil {
		return err
	}

	cfg, err := s.Chains.GetChain(c)
	if err != nil {
		return err
	}

	priority, err := parsePriority(opts.priority)
	if err != nil {
		return err
	}

	decimals := cfg.Decimals
	if opts.decimals >= 0 {
		decimals = opts.decimals
	}

	amount, err := transfer.ParseAmount(opts.amount, decimals)
	if err != nil {
		return err
	}

	prompt := keyvault.PasswordFunc(command.StaticPassword(s.Config.Keystore.Password))
	if _, err := keyvault.InitializeWallet(ctx, s.Vault, opts.wallet, prompt); err != nil {
		return err
	}
	defer s.Vault.Lock(opts.wallet)

	from, err := s.Vault.DerivePublicAccount(ctx, opts.wallet, c)
	if err != nil {
		return err
	}

	intent := wallet.TransferIntent{
		WalletID:     opts.wallet,
		Type:         wallet.TransactionTypeTransfer,
		AssetID:      wallet.AssetID{Chain: c, TokenID: opts.token},
		From:         from,
		To:           opts.to,
		Amount:       amount,
		Memo:         opts.memo,
		UseMaxAmount: opts.max,
	}

	params, err := s.Transfer.Prepare(ctx, intent)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fee := params.FeeFor(priority)
	if fee.Amount != nil {
		fmt.Fprintf(out, "Fee (%s): %s %s\n", priority, transfer.FormatAmount(fee.Amount.String(), cfg.Decimals), cfg.Symbol)
	}

	tx, err := s.Transfer.Submit(ctx, params, priority)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Broadcast %s\n  id:    %s\n  from:  %s\n  to:    %s\n  value: %s\n  state: %s\n",
		tx.Hash, tx.ID, tx.Owner, tx.Recipient, transfer.FormatAmount(tx.Value, decimals), tx.State)

	return nil
}
