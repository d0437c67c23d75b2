package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pdfsuite/internal/ipc"
	"pdfsuite/internal/settings"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change output preferences",
	}

	settingsCmd.AddCommand(newSettingsGetCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))
	settingsCmd.AddCommand(newSettingsResetCommand(ctx))
	settingsCmd.AddCommand(newSettingsClearRecentCommand(ctx))
	settingsCmd.AddCommand(newSettingsChooseFolderCommand(ctx))

	return settingsCmd
}

func newSettingsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				st, err := api.GetSettings(cmd.Context())
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	var (
		outputFolder    string
		defaultFolder   bool
		openAfterBatch  bool
		appendTimestamp bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch settings.Patch
			flags := cmd.Flags()
			if flags.Changed("output-folder") {
				folder := strings.TrimSpace(outputFolder)
				patch.OutputFolder = &folder
			}
			if defaultFolder {
				empty := ""
				patch.OutputFolder = &empty
			}
			if flags.Changed("open-folder-after-batch") {
				patch.OpenFolderAfterBatch = &openAfterBatch
			}
			if flags.Changed("append-timestamp") {
				patch.AppendTimestamp = &appendTimestamp
			}
			if patch == (settings.Patch{}) {
				return fmt.Errorf("nothing to change; see --help for the available settings")
			}

			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				st, err := api.SetSettings(cmd.Context(), patch)
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&outputFolder, "output-folder", "", "Folder that receives converted files")
	cmd.Flags().BoolVar(&defaultFolder, "default-output-folder", false, "Reset the output folder to the default")
	cmd.Flags().BoolVar(&openAfterBatch, "open-folder-after-batch", true, "Open the output folder after a batch")
	cmd.Flags().BoolVar(&appendTimestamp, "append-timestamp", false, "Append a timestamp to output file names")
	return cmd
}

func newSettingsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := ""
			openAfter := true
			stamp := false
			recent := []string{}
			patch := settings.Patch{
				OutputFolder:         &folder,
				OpenFolderAfterBatch: &openAfter,
				AppendTimestamp:      &stamp,
				RecentFiles:          &recent,
			}
			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				st, err := api.SetSettings(cmd.Context(), patch)
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
}

func newSettingsClearRecentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-recent",
		Short: "Forget the recently viewed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			recent := []string{}
			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				if _, err := api.SetSettings(cmd.Context(), settings.Patch{RecentFiles: &recent}); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Recent files cleared")
				return nil
			})
		},
	}
}

func newSettingsChooseFolderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "choose-folder",
		Short: "Pick the output folder with the system dialog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				folder, selected, err := api.OpenFolderDialog(cmd.Context())
				if err != nil {
					return err
				}
				if !selected {
					fmt.Fprintln(cmd.OutOrStdout(), "No folder selected")
					return nil
				}
				st, err := api.SetSettings(cmd.Context(), settings.Patch{OutputFolder: &folder})
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
}

func printSettings(out io.Writer, st settings.Settings) {
	rows := [][]string{
		{"Output folder", st.OutputFolder},
		{"Open folder after batch", yesNo(st.OpenFolderAfterBatch)},
		{"Append timestamp", yesNo(st.AppendTimestamp)},
	}
	for i, path := range st.RecentFiles {
		label := ""
		if i == 0 {
			label = "Recent files"
		}
		rows = append(rows, []string{label, strconv.Itoa(i+1) + ". " + path})
	}
	fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
}
