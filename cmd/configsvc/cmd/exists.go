package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var existsCmd = &cobra.Command{
	Use:   "exists",
	Short: "Tell if a configuration file is tracked",
	Run: func(cmd *cobra.Command, args []string) {
		w, err := openService(cmd)
		if err != nil {
			wrapFatalln("open config service", err)
			return
		}
		defer closeService(w)

		found, err := w.Service.Exists(commandContext(), configsvcFlags.file.Path)
		if err != nil {
			wrapFatalln("exists "+configsvcFlags.file.Path, err)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), found)
	},
}

func init() {
	requireFlags(existsCmd, addPathFlag(existsCmd))
	rootCmd.AddCommand(existsCmd)
}
