package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newDatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List the report dates the backend offers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.client(&caches{}, nil)
			dates, err := client.ListDates(context.Background())
			if err != nil {
				return fmt.Errorf("load dates: %w", err)
			}
			if len(dates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No report dates available.")
				return nil
			}
			for _, d := range dates {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
}
