package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"reconviewer/config"
	"reconviewer/internal/logger"
	"reconviewer/internal/model"
	"reconviewer/internal/reportapi"
	"reconviewer/internal/store/redis"
	"reconviewer/internal/store/sqlite"
)

// app carries what every subcommand needs after config is loaded.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var cfgFile string

	root := &cobra.Command{
		Use:   "reconviewer",
		Short: "Browse daily reconciliation diff reports.",
		Long: `reconviewer reads the reconciliation report backend (/api/dates, /api/diff,
/api/prod_row, /api/ticks). "serve" runs the browser shell gateway; the other
commands print a single query to the terminal.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.reconviewer.yaml)")
	flags.String("api-base", "", "report backend base URL")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("cache", "", "response cache: none, redis, sqlite")
	a.v.BindPFlag("api_base", flags.Lookup("api-base"))
	a.v.BindPFlag("log_level", flags.Lookup("log-level"))
	a.v.BindPFlag("cache_backend", flags.Lookup("cache"))

	root.AddCommand(
		newServeCmd(a),
		newDatesCmd(a),
		newReportCmd(a),
		newInspectCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, cfgFile string) error {
	config.SetDefaults(a.v)
	if err := a.readConfig(cfgFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)

	// Terminal commands print tables on stdout, so their logs go to stderr.
	if cmd.Name() == "serve" {
		a.log = logger.Init("reconviewer", level)
	} else {
		a.log = logger.InitWriter(os.Stderr, "reconviewer", level)
	}
	a.cfg = cfg
	return nil
}

// readConfig reads cfgFile, or $HOME/.reconviewer.yaml when it exists.
func (a *app) readConfig(cfgFile string) error {
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	a.v.AddConfigPath(home)
	a.v.SetConfigName(".reconviewer")
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// caches holds the configured response cache and its concrete store, kept
// for health probes and the SQLite janitor.
type caches struct {
	cache  model.ResponseCache
	redis  *redis.Cache
	sqlite *sqlite.Cache
}

func (c *caches) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}

// openCache builds the configured response cache. cache_backend=none yields
// an empty set.
func (a *app) openCache() (*caches, error) {
	switch a.cfg.CacheBackend {
	case config.CacheRedis:
		rc, err := redis.NewCache(redis.CacheConfig{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
			TTL:      a.cfg.CacheTTL,
		})
		if err != nil {
			return nil, err
		}
		return &caches{cache: rc, redis: rc}, nil
	case config.CacheSQLite:
		sc, err := sqlite.NewCache(sqlite.CacheConfig{
			DBPath: a.cfg.SQLitePath,
			TTL:    a.cfg.CacheTTL,
		})
		if err != nil {
			return nil, err
		}
		return &caches{cache: sc, sqlite: sc}, nil
	}
	return &caches{}, nil
}

func (a *app) client(c *caches, rec reportapi.Recorder) *reportapi.Client {
	return reportapi.New(reportapi.Options{
		BaseURL:         a.cfg.APIBase,
		Timeout:         a.cfg.HTTPTimeout,
		RetryMax:        a.cfg.RetryMax,
		BreakerFailures: a.cfg.BreakerFailures,
		BreakerReset:    a.cfg.BreakerReset,
		Cache:           c.cache,
		Recorder:        rec,
		Logger:          a.log,
	})
}
