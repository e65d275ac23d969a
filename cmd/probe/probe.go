package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/util/command"
)

const (
	verboseFlag string = "verbose"

	probeTimeout = 5 * time.Second
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("probe",
		newLiveness(),
		newReadiness(),
	)
}

func newProbe(use string, short string, path string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}

			cfg := config.DefaultServiceConfigFromEnv()

			body, err := probe(cmd.Context(), managementURL(cfg.Management.ListenAddress)+path)
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), body)
			}

			return err
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Print the probe response")

	return cmd
}

func newLiveness() *cobra.Command {
	return newProbe("liveness", "Runs liveness probes", "/-/healthy")
}

func newReadiness() *cobra.Command {
	return newProbe("readiness", "Runs readiness probes", "/-/ready")
}

// managementURL turns a listen address such as ":8090" into a dialable base URL.
func managementURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		listen = "127.0.0.1" + listen
	}

	return "http://" + listen
}

func probe(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create probe request")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "probe %s failed", url)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	if res.StatusCode != http.StatusOK {
		return string(body), errors.Errorf("probe %s returned %d", url, res.StatusCode)
	}

	return string(body), nil
}
