package main

import (
	"context"
	"os"
	"time"

	"userapi/internal/config"
	"userapi/internal/logger"
	"userapi/internal/repository/db"
	"userapi/internal/service"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

const dbInitTimeout = 20 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "userapi",
		Short:        "User CRUD HTTP service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default configs/config.yml)")
	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newHashCmd(&configPath),
	)
	return root
}

// loadConfig resolves configuration and the process logger once, before anything else runs.
func loadConfig(path string) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger.Get(cfg.Log.Level, cfg.Log.Format), nil
}

// loadStoreConfig is loadConfig for commands that never hash, so HASH_SECRET is optional.
func loadStoreConfig(path string) (config.Config, *logger.Logger, error) {
	cfg, err := config.Read(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.ValidateDB(); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger.Get(cfg.Log.Level, cfg.Log.Format), nil
}

// openDB initializes the connection pool using configuration.
func openDB(cfg config.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbInitTimeout)
	defer cancel()
	return db.InitDB(ctx, db.Options{
		Driver:          cfg.DB.Driver,
		DSN:             cfg.DB.DSN,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
}

func newHasher(cfg config.Config) (*service.Hasher, error) {
	return service.NewHasher(cfg.Hash.Secret, service.HashParams{
		Algorithm:  cfg.Hash.Algorithm,
		Time:       cfg.Hash.Time,
		MemoryKiB:  cfg.Hash.MemoryKiB,
		Threads:    cfg.Hash.Threads,
		KeyLen:     cfg.Hash.KeyLen,
		SaltLen:    cfg.Hash.SaltLen,
		BcryptCost: cfg.Hash.BcryptCost,
		Workers:    cfg.Hash.Workers,
	})
}
