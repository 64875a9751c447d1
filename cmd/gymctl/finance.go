package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/qs3c/gym_go_server/internal/model/dto"
)

func newFinanceCmd(load func() (*env, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Finance reports",
	}

	var (
		out string
		req dto.PaymentListRequest
	)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export payments to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = fmt.Sprintf("payments-%s.xlsx", time.Now().Format("20060102"))
			}
			e, err := load()
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			w := bufio.NewWriter(f)
			rows, err := e.services.Finance.Export(w, &req)
			if err == nil {
				err = w.Flush()
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(out)
				return err
			}
			cmd.Printf("exported %d payments to %s\n", rows, out)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: payments-YYYYMMDD.xlsx)")
	exportCmd.Flags().StringVar(&req.Status, "status", "", "filter by payment status")
	exportCmd.Flags().Int64Var(&req.StudentID, "student", 0, "filter by student id")
	exportCmd.Flags().StringVar(&req.From, "from", "", "due date lower bound YYYY-MM-DD")
	exportCmd.Flags().StringVar(&req.To, "to", "", "due date upper bound YYYY-MM-DD")

	cmd.AddCommand(exportCmd)
	return cmd
}
