package cmd

import (
	"fmt"
	"log/slog"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/cobra"

	"github.com/gc30/certify/internal/models"
)

// exportRow is the Parquet layout of one stored request.
type exportRow struct {
	RequestID   string   `parquet:"request_id"`
	Email       string   `parquet:"email"`
	Images      []string `parquet:"images,list"`
	ImageCount  int32    `parquet:"image_count"`
	SubmittedAt int64    `parquet:"submitted_at,optional,timestamp(millisecond)"`
}

func newExportCmd(ctx *commandContext) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write all stored requests to a Parquet file",
		Example: `  certify export --out requests.parquet`,
		Args:    cobra.NoArgs,
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
			if err := writeParquet(out, records); err != nil {
				return err
			}
			slog.Info("Requests exported", "count", len(records), "path", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "requests.parquet", "Destination Parquet file")

	return cmd
}

func toExportRows(records []models.SubmissionRecord) []exportRow {
	rows := make([]exportRow, 0, len(records))
	for _, r := range records {
		row := exportRow{
			RequestID:  r.TrackingCode,
			Email:      r.Email,
			Images:     r.Images,
			ImageCount: int32(len(r.Images)),
		}
		if !r.SubmittedAt.IsZero() {
			row.SubmittedAt = r.SubmittedAt.UnixMilli()
		}
		rows = append(rows, row)
	}
	return rows
}

func writeParquet(path string, records []models.SubmissionRecord) error {
	if err := parquet.WriteFile(path, toExportRows(records)); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}
