package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/gc30/certify/internal/models"
)

func newListCmd(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no requests stored")
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderRecords(records))
			return err
		},
	}
}

func renderRecords(records []models.SubmissionRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Code", "Email", "Images", "Submitted"})

	for _, r := range records {
		submitted := "-"
		if !r.SubmittedAt.IsZero() {
			submitted = r.SubmittedAt.Local().Format(time.DateTime)
		}
		tw.AppendRow(table.Row{r.TrackingCode, r.Email, strconv.Itoa(len(r.Images)), submitted})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
