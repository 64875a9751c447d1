package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBillingCmd(load func() (*env, error)) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Run billing batch jobs by hand",
	}
	cmd.PersistentFlags().StringVar(&asOf, "as-of", "", "reference date YYYY-MM-DD (default: today)")

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Mark students with lapsed payments as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			e, err := load()
			if err != nil {
				return err
			}
			result, err := e.services.Billing.SweepOverdue(cmd.Context(), at)
			if err != nil {
				return err
			}
			cmd.Printf("as of %s: %d students overdue, %d payments marked, %d failed\n",
				result.AsOf.Format(time.DateOnly), result.Processed, result.PaymentsMarked, result.Failed)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "renew",
		Short: "Create renewal payments for plans that have ended",
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			e, err := load()
			if err != nil {
				return err
			}
			result, err := e.services.Billing.CheckRenewals(cmd.Context(), at)
			if err != nil {
				return err
			}
			cmd.Printf("as of %s: %d renewal payments created, %d failed\n",
				result.AsOf.Format(time.DateOnly), result.Processed, result.Failed)
			return nil
		},
	})
	return cmd
}

// parseAsOf 空串表示当前时间（零值交给服务处理）
func parseAsOf(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q, want YYYY-MM-DD", v)
	}
	return t, nil
}
