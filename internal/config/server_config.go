package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ModuleName 模块名称
const ModuleName = "wallet-txengine"

// Build information, set via -ldflags.
var (
	BuildTime   = "unknown"
	BuildCommit = "unknown"
)

const envPrefix = "WALLET"

type Database struct {
	// Driver is "sqlite3", "postgres" or "memory".
	Driver      string `json:"driver"`
	DSN         string `json:"-"` // sensitive
	AutoMigrate bool   `json:"autoMigrate"`
}

type LoggerServer struct {
	Level              zerolog.Level `json:"level"`
	PrettyPrintConsole bool          `json:"prettyPrintConsole"`
}

type Management struct {
	ListenAddress string `json:"listenAddress"`
}

type Reconciler struct {
	Enabled     bool          `json:"enabled"`
	Interval    time.Duration `json:"interval"`
	Concurrency int           `json:"concurrency"`
}

type Keystore struct {
	Dir string `json:"dir"`
	// Password unlocks wallets at server start. Empty means wallets stay locked and only
	// status reconciliation runs.
	Password string `json:"-"` // sensitive
}

type Chains struct {
	File    string   `json:"file"`
	Enabled []string `json:"enabled"`
}

// Server 服务配置
type Server struct {
	Database   Database
	Logger     LoggerServer
	Management Management
	Reconciler Reconciler
	Keystore   Keystore
	Chains     Chains
	// Nodes maps a chain name to a comma separated endpoint list (WALLET_NODE_<CHAIN>).
	Nodes map[string]string
	// NodeHeaders maps a chain name to "key=value" headers sent with every node request
	// (WALLET_NODE_HEADER_<CHAIN>), e.g. a Blockfrost project_id.
	NodeHeaders map[string]string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:wallet.db?_foreign_keys=on")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("logger.level", "debug")
	v.SetDefault("logger.pretty_print_console", false)

	v.SetDefault("management.listen_address", ":8090")

	v.SetDefault("reconciler.enabled", true)
	v.SetDefault("reconciler.interval", "10s")
	v.SetDefault("reconciler.concurrency", 32)

	v.SetDefault("keystore.dir", "keystore")
	v.SetDefault("keystore.password", "")

	v.SetDefault("chains.file", "")
	v.SetDefault("chains.enabled", "")
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
func DefaultServiceConfigFromEnv() Server {
	return ServiceConfigFromEnviron(nil)
}

// ServiceConfigFromEnviron builds the config from environ ("KEY=value" pairs) layered over the
// process environment. Keys in environ win.
func ServiceConfigFromEnviron(environ []string) Server {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	overrides := parseEnviron(environ)
	for key, value := range overrides {
		if name, ok := strings.CutPrefix(key, envPrefix+"_"); ok {
			v.Set(strings.ToLower(strings.Replace(name, "_", ".", 1)), value)
		}
	}

	level, err := zerolog.ParseLevel(v.GetString("logger.level"))
	if err != nil {
		level = zerolog.DebugLevel
	}

	interval := v.GetDuration("reconciler.interval")
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return Server{
		Database: Database{
			Driver:      v.GetString("database.driver"),
			DSN:         v.GetString("database.dsn"),
			AutoMigrate: v.GetBool("database.auto_migrate"),
		},
		Logger: LoggerServer{
			Level:              level,
			PrettyPrintConsole: v.GetBool("logger.pretty_print_console"),
		},
		Management: Management{
			ListenAddress: v.GetString("management.listen_address"),
		},
		Reconciler: Reconciler{
			Enabled:     v.GetBool("reconciler.enabled"),
			Interval:    interval,
			Concurrency: v.GetInt("reconciler.concurrency"),
		},
		Keystore: Keystore{
			Dir:      v.GetString("keystore.dir"),
			Password: v.GetString("keystore.password"),
		},
		Chains: Chains{
			File:    v.GetString("chains.file"),
			Enabled: splitList(v.GetString("chains.enabled")),
		},
		Nodes:       prefixed(environ, envPrefix+"_NODE_", envPrefix+"_NODE_HEADER_"),
		NodeHeaders: prefixed(environ, envPrefix+"_NODE_HEADER_", ""),
	}
}

// GetFormattedBuildArgs returns string representation of buildsargs set via ldflags "<ModuleName> @ <BuildCommit> (<BuildTime>)"
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v) %v", ModuleName, BuildCommit, BuildTime, runtime.Version())
}
