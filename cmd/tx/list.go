package tx

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/util/command"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/store"
	"github/chapool/wallet-txengine/internal/wallet/transfer"
)

func newList() *cobra.Command {
	var (
		states []string
		chains []string
		owner  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Prints stored transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command.WithServer(cmd.Context(), config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
				filter := store.Filter{Owner: owner, Limit: limit}

				var err error
				if filter.States, err = parseStates(states); err != nil {
					return err
				}
				for _, name := range chains {
					c, err := chain.Parse(name)
					if err != nil {
						return err
					}
					filter.Chains = append(filter.Chains, c)
				}

				txs, err := s.Store.Query(ctx, filter)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CREATED\tCHAIN\tSTATE\tVALUE\tFEE\tHASH")
				for _, tx := range txs {
					decimals := int32(0)
					if cfg, err := s.Chains.GetChain(tx.Chain()); err == nil && tx.AssetID.IsNative() {
						decimals = cfg.Decimals
					}

					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						tx.CreatedTime().UTC().Format(time.RFC3339), tx.Chain(), tx.State,
						transfer.FormatAmount(tx.Value, decimals), tx.Fee, tx.Hash)
				}

				return w.Flush()
			})
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&states, stateFlag, nil, "Only transactions in these states")
	f.StringSliceVar(&chains, chainFlag, nil, "Only transactions on these chains")
	f.StringVar(&owner, ownerFlag, "", "Only transactions sent by this address")
	f.IntVar(&limit, limitFlag, 50, "Maximum number of transactions")

	return cmd
}
