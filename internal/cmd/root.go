package cmd

import (
	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/stitch-sync/internal/config"
	"github.com/TechnicallyShaun/stitch-sync/internal/prompt"
)

// NewRootCmd creates the root command for the stitch-sync CLI
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stitch-sync",
		Short: "Copy embroidery designs to your machine's USB drive",
		Long: `stitch-sync watches a directory for new embroidery designs, converts them
to a format your machine reads, and copies them onto a mounted USB drive.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default is the user config directory)")

	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewMachinesCmd())
	rootCmd.AddCommand(NewMachineCmd())
	rootCmd.AddCommand(NewFormatsCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewStopCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// openConfig opens the file named by --config, or the default one.
func openConfig(cmd *cobra.Command) (*config.Store, error) {
	path := ""
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}
	return config.Open(path)
}

// prompterFor reads answers from the command's input stream.
func prompterFor(cmd *cobra.Command) prompt.Prompter {
	return prompt.NewLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}
