package cmd

import (
	"github.com/spf13/cobra"
)

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the settings of configsvc",
	Long: `Commands to manage the settings of configsvc.

Settings are read from a configsvc.yaml file, and may be overridden by environment variables
prefixed with CONFIGSVC_, e.g. CONFIGSVC_ANNEX_MINFILESIZE=10MB.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings in use",
	Run: func(cmd *cobra.Command, args []string) {
		if err := render(cmd, settings, nil); err != nil {
			wrapFatalln("render", err)
		}
	},
}

func init() {
	addFormatFlag(configShowCmd, formatYAML)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
