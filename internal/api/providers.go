package api

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github/chapool/wallet-txengine/internal/config"
	"github/chapool/wallet-txengine/internal/metrics"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/keyvault"
	"github/chapool/wallet-txengine/internal/wallet/node"
	"github/chapool/wallet-txengine/internal/wallet/reconcile"
	"github/chapool/wallet-txengine/internal/wallet/registry"
	"github/chapool/wallet-txengine/internal/wallet/store"
	"github/chapool/wallet-txengine/internal/wallet/transfer"

	// Import database drivers for database/sql package
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const DriverMemory = "memory"

// NewDB opens the configured database. The memory driver has no database and returns nil.
func NewDB(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	if cfg.Driver == DriverMemory {
		return nil, nil //nolint:nilnil
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", cfg.Driver)
	}

	if cfg.Driver == store.DriverSQLite {
		// sqlite serializes writers; one connection also keeps ":memory:" databases shared
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if cfg.AutoMigrate {
		n, err := store.Migrate(ctx, db, cfg.Driver)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Int("count", n).Msg("Applied migrations")
	}

	return db, nil
}

//nolint:ireturn
func NewStore(db *sql.DB, driver string) (store.Store, error) {
	if db == nil {
		return store.NewMemory(), nil
	}

	return store.NewSQL(db, driver)
}

//nolint:ireturn
func NewChains(cfg config.Chains) (chain.Service, error) {
	configs, err := chain.Load(cfg.File)
	if err != nil {
		return nil, err
	}

	enabled := make([]chain.Chain, 0, len(cfg.Enabled))
	for _, name := range cfg.Enabled {
		c, err := chain.Parse(name)
		if err != nil {
			return nil, err
		}
		enabled = append(enabled, c)
	}

	return chain.NewService(configs, enabled), nil
}

// NewSelector uses the endpoints of the chain table unless WALLET_NODE_<CHAIN> overrides them.
func NewSelector(nodes map[string]string, chains chain.Service) *node.Selector {
	endpoints := make(map[chain.Chain][]string)
	for _, cfg := range chains.EnabledChains() {
		urls := cfg.Endpoints
		if override, ok := nodes[cfg.Chain.String()]; ok {
			urls = chains.ParseRPCURLs(override)
		}
		endpoints[cfg.Chain] = urls
	}

	return node.NewSelector(endpoints)
}

//nolint:ireturn
func NewRegistry(cfg config.Server, chains chain.Service, selector *node.Selector) (registry.Registry, error) {
	var opts []registry.Option
	for name, header := range cfg.NodeHeaders {
		c, err := chain.Parse(name)
		if err != nil {
			return nil, err
		}

		for _, pair := range strings.Split(header, ",") {
			key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				return nil, errors.Errorf("invalid node header %q for %s", pair, name)
			}
			opts = append(opts, registry.WithHeader(c, key, value))
		}
	}

	clients, err := registry.Build(chains.EnabledChains(), selector, opts...)
	if err != nil {
		return nil, err
	}

	reg, err := registry.NewRegistry(clients)
	if err != nil {
		return nil, err
	}

	if missing := reg.MissingStatusCoverage(); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, c := range missing {
			names = append(names, c.String())
		}
		log.Warn().Strs("chains", names).Msg("Chains without status client, their transactions stay pending")
	}

	return reg, nil
}

//nolint:ireturn
func NewVault(cfg config.Keystore, chains chain.Service) keyvault.Service {
	opts := make([]keyvault.Option, 0, len(registry.AddressEncoders()))
	for family, fn := range registry.AddressEncoders() {
		opts = append(opts, keyvault.WithAddressFunc(family, keyvault.AddressFunc(fn)))
	}

	return keyvault.NewService(cfg.Dir, chains, opts...)
}

// InitNewServer creates every component of the engine. Echo routes are attached separately.
func InitNewServer(ctx context.Context, cfg config.Server) (*Server, error) {
	s := NewServer(cfg)

	s.Metrics = prometheus.NewRegistry()
	s.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var err error

	s.DB, err = NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	s.Store, err = NewStore(s.DB, cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	s.Chains, err = NewChains(cfg.Chains)
	if err != nil {
		return nil, err
	}

	s.Registry, err = NewRegistry(cfg, s.Chains, NewSelector(cfg.Nodes, s.Chains))
	if err != nil {
		return nil, err
	}

	s.Vault = NewVault(cfg.Keystore, s.Chains)

	s.Transfer = transfer.NewService(s.Registry, s.Vault, s.Store,
		transfer.WithMetrics(metrics.NewBroadcastMetrics(s.Metrics)),
	)

	s.Reconciler = reconcile.NewService(s.Store, s.Registry, s.Chains,
		reconcile.WithInterval(cfg.Reconciler.Interval),
		reconcile.WithConcurrency(cfg.Reconciler.Concurrency),
		reconcile.WithMetrics(metrics.NewReconcileMetrics(s.Metrics)),
		reconcile.WithNotifier(reconcile.NotifierFunc(logChange)),
	)

	return s, nil
}

func logChange(_ context.Context, change reconcile.Change) {
	e := log.Info().
		Str("tx_id", change.Transaction.ID).
		Str("chain", change.Transaction.Chain().String()).
		Str("from", string(change.Previous)).
		Str("state", string(change.Transaction.State)).
		Str("reason", string(change.Reason))
	if change.OldID != "" {
		e = e.Str("old_id", change.OldID)
	}
	e.Msg("Transaction changed")
}
