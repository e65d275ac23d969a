package chains

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/util/command"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "Prints the chain table and which chains the engine can sign, broadcast and track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			cfg.Database.Driver = api.DriverMemory

			return command.WithServer(cmd.Context(), cfg, func(_ context.Context, s *api.Server) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CHAIN\tFAMILY\tSYMBOL\tTIMEOUT\tSIGN\tBROADCAST\tSTATUS")

				for _, c := range s.Chains.EnabledChains() {
					_, signErr := s.Registry.Signer(c.Chain)
					_, broadcastErr := s.Registry.Broadcaster(c.Chain)
					_, status := s.Registry.StatusClient(c.Chain)

					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						c.Chain, c.Family, c.Symbol, c.TransactionTimeout,
						mark(signErr == nil), mark(broadcastErr == nil), mark(status))
				}

				if err := w.Flush(); err != nil {
					return err
				}

				if missing := s.Registry.MissingStatusCoverage(); len(missing) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "\nNo status client (transactions stay Pending): %v\n", missing)
				}

				return nil
			})
		},
	}
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}

	return "-"
}
