package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a configuration file",
	Long: `Update a tracked configuration file, from a local file or from stdin.

The new revision is stored in the same tier as the file was created in.`,
	Example: `% configsvc update --path tcs/tcs1.conf --file ./tcs1.conf -m "raise axis limit"`,
	Run: func(cmd *cobra.Command, args []string) {
		w, err := openService(cmd)
		if err != nil {
			wrapFatalln("open config service", err)
			return
		}
		defer closeService(w)

		input, err := openInput(cmd)
		if err != nil {
			wrapFatalln("open input", err)
			return
		}
		defer input.Close()

		id, err := w.Service.Update(commandContext(), configsvcFlags.file.Path, input, configsvcFlags.file.Comment)
		if err != nil {
			wrapFatalln("update "+configsvcFlags.file.Path, err)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
	},
}

func init() {
	requireFlags(updateCmd,
		addPathFlag(updateCmd),
		addCommentFlag(updateCmd),
	)
	addInputFlag(updateCmd)
	rootCmd.AddCommand(updateCmd)
}
