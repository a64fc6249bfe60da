package cmd

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a configuration file",
	Long: `Delete a configuration file.

The file is no longer tracked, and its history is closed: creating the same path again
starts a new history.`,
	Run: func(cmd *cobra.Command, args []string) {
		w, err := openService(cmd)
		if err != nil {
			wrapFatalln("open config service", err)
			return
		}
		defer closeService(w)

		if err = w.Service.Delete(commandContext(), configsvcFlags.file.Path, configsvcFlags.file.Comment); err != nil {
			wrapFatalln("delete "+configsvcFlags.file.Path, err)
			return
		}
	},
}

func init() {
	requireFlags(deleteCmd,
		addPathFlag(deleteCmd),
		addCommentFlag(deleteCmd),
	)
	rootCmd.AddCommand(deleteCmd)
}
