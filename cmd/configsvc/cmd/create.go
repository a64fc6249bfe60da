package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file",
	Long: `Create a configuration file in the store, from a local file or from stdin.

The path must not be tracked already. Files flagged as oversize, or larger than the annex
threshold, are stored in the annex.`,
	Example: `% configsvc create --path tcs/tcs1.conf --file ./tcs1.conf -m "initial version"
2HwQv4XZ0y5bKkJ1nTDPmyqgvqs`,
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

		id, err := w.Service.Create(commandContext(), configsvcFlags.file.Path, input, configsvcFlags.file.Oversize, configsvcFlags.file.Comment)
		if err != nil {
			wrapFatalln("create "+configsvcFlags.file.Path, err)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
	},
}

func init() {
	requireFlags(createCmd,
		addPathFlag(createCmd),
		addCommentFlag(createCmd),
	)
	addInputFlag(createCmd)
	addOversizeFlag(createCmd)
	addMinSizeFlag(createCmd)
	rootCmd.AddCommand(createCmd)
}
