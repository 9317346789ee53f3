package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users table and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadStoreConfig(*configPath)
			if err != nil {
				return err
			}
			conn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			log.Infow("schema applied", "driver", cfg.DB.Driver)
			return nil
		},
	}
}
