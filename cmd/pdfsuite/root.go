package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var (
		socketFlag  string
		configFlag  string
		verboseFlag bool
		localFlag   bool
	)

	ctx := newCommandContext(&socketFlag, &configFlag, &verboseFlag, &localFlag)

	rootCmd := &cobra.Command{
		Use:           "pdfsuite",
		Short:         "Convert documents to and from PDF",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "Path to the pdfsuite service socket")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show full error messages and debug logs")
	rootCmd.PersistentFlags().BoolVar(&localFlag, "local", false, "Run conversions in this process instead of the service")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newConvertHTMLCommand(ctx))
	rootCmd.AddCommand(newFromPDFCommand(ctx))
	rootCmd.AddCommand(newViewCommand(ctx))
	rootCmd.AddCommand(newSettingsCommand(ctx))
	rootCmd.AddCommand(newOpenCommand(ctx))
	rootCmd.AddCommand(newVersionCommand(ctx))
	rootCmd.AddCommand(newNoticesCommand(ctx))

	return rootCmd
}
