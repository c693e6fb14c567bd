package main

import (
	"github.com/spf13/cobra"

	"github.com/complaintdesk/complaint-desk/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return persistence.RunMigrations(cmd.Context(), a.pg.PoolHandle(), a.logger)
	},
}
