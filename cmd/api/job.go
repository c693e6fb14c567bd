package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/complaintdesk/complaint-desk/internal/service"
)

var runJobCmd = &cobra.Command{
	Use:       "run-job <name>",
	Short:     "Run one maintenance job now, honoring its lock and day marker",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{service.JobSLADecay, service.JobFieldBackfill},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		scheduler, err := a.scheduler()
		if err != nil {
			return err
		}
		result, err := scheduler.RunOnce(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d entries)\n", args[0], result.Outcome, result.Entries)
		return nil
	},
}
