package cmd

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	ctx := &commandContext{}

	cmd := &cobra.Command{
		Use:   "certify",
		Short: "Autograph certification request intake and lookup",
		Long: `Certify accepts autograph certification requests (an email address and a set of
photos), records them under a tracking code and lets customers look them up again.

It runs the intake web service and offers commands for inspecting the request store.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}

	cmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path (default certify.toml when present)")
	cmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Override log level (debug, info, warn, error)")

	// Add subcommands
	cmd.AddCommand(newServeCmd(ctx))
	cmd.AddCommand(newLookupCmd(ctx))
	cmd.AddCommand(newListCmd(ctx))
	cmd.AddCommand(newExportCmd(ctx))

	return cmd
}
