package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gc30/certify/internal/submission"
)

type lookupOutput struct {
	RequestID string   `json:"requestId" yaml:"requestId"`
	Email     string   `json:"email" yaml:"email"`
	Images    []string `json:"images" yaml:"images"`
}

func newLookupCmd(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "lookup <code>",
		Short: "Show the request stored under a tracking code",
		Long: `Looks a tracking code up in the configured store, exactly as /search does.
Images whose files are missing from the uploads directory are left out.`,
		Example: `  certify lookup GC30-20250719-0421
  certify lookup GC30-20250719-0421 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unsupported format %q (use yaml or json)", format)
			}

			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.service.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeLookup(cmd.OutOrStdout(), args[0], result, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml or json)")

	return cmd
}

func writeLookup(w io.Writer, code string, result *submission.Result, format string) error {
	if result == nil {
		_, err := fmt.Fprintln(w, "no record found")
		return err
	}

	out := lookupOutput{RequestID: code, Email: result.Email, Images: result.Images}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}
