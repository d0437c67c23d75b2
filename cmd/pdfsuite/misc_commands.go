package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"pdfsuite/internal/ipc"
)

func newOpenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a folder, or reveal a file, in the system file manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				return api.OpenPath(cmd.Context(), path)
			})
		},
	}
}

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				v, err := api.AppVersion(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pdfsuite %s\n", v)
				return nil
			})
		},
	}
}

func newNoticesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "notices",
		Short: "Print the third-party license notices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				text, err := api.LicenseNotices(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}
