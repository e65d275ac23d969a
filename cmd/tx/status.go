package tx

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/util/command"
	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
)

var errNoStatusClient = errors.New("chain has no status client")

func newStatus() *cobra.Command {
	var req struct {
		chain, hash, sender, block string
	}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Queries the chain once for the status of a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				c, err := chain.Parse(req.chain)
				if err != nil {
					return err
				}

				client, ok := s.Registry.StatusClient(c)
				if !ok {
					return errors.Wrapf(errNoStatusClient, "%s", c)
				}

				result, err := client.GetStatus(ctx, wallet.StatusRequest{
					Chain:       c,
					Hash:        req.hash,
					Sender:      req.sender,
					BlockNumber: req.block,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "state: %s\n", result.State)
				if result.Fee != nil {
					fmt.Fprintf(out, "fee:   %s\n", result.Fee)
				}
				if result.HashChange != nil {
					fmt.Fprintf(out, "hash:  %s -> %s\n", result.HashChange.Old, result.HashChange.New)
				}

				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.chain, chainFlag, "", "Chain of the transaction")
	f.StringVar(&req.hash, hashFlag, "", "Transaction hash")
	f.StringVar(&req.sender, senderFlag, "", "Sender address, required by some chains")
	f.StringVar(&req.block, blockFlag, "", "Block number the transaction was built against")
	_ = cmd.MarkFlagRequired(chainFlag)
	_ = cmd.MarkFlagRequired(hashFlag)

	return cmd
}
