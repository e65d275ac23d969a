package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/keyvault"
	"github/chapool/wallet-txengine/internal/wallet/reconcile"
	"github/chapool/wallet-txengine/internal/wallet/registry"
	"github/chapool/wallet-txengine/internal/wallet/store"
	"github/chapool/wallet-txengine/internal/wallet/transfer"
)

type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1      *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with InitNewServer, which creates the components in the right order.
// Echo and Router are initialized afterwards by router.Init(s).
type Server struct {
	Echo   *echo.Echo
	Router *Router

	Config config.Server
	// DB is nil when the store is in memory.
	DB         *sql.DB
	Metrics    *prometheus.Registry
	Chains     chain.Service
	Registry   registry.Registry
	Store      store.Store
	Vault      keyvault.Service
	Transfer   transfer.Service
	Reconciler reconcile.Service
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

// Ready reports whether every component is initialized.
func (s *Server) Ready() bool {
	missing := ""
	switch {
	case s.Echo == nil:
		missing = "echo"
	case s.Metrics == nil:
		missing = "metrics"
	case s.Chains == nil:
		missing = "chains"
	case s.Registry == nil:
		missing = "registry"
	case s.Store == nil:
		missing = "store"
	case s.Vault == nil:
		missing = "vault"
	case s.Transfer == nil:
		missing = "transfer"
	case s.Reconciler == nil:
		missing = "reconciler"
	}

	if missing != "" {
		log.Debug().Str("component", missing).Msg("Server is not fully initialized")
		return false
	}

	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Management.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Reconciler != nil {
		log.Debug().Msg("Stopping transaction reconciler")
		s.Reconciler.Stop()
	}

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.DB != nil {
		log.Debug().Msg("Closing database connection")

		if err := s.DB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			log.Error().Err(err).Msg("Failed to close database connection")
			errs = append(errs, err)
		}
	}

	return errs
}
