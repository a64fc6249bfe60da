package cmd

import (
	"github.com/gosuri/uitable"
	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/oneconcern/configsvc/pkg/service"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List configuration files",
	Long:    `List tracked configuration files, with their latest revision`,
	Aliases: []string{"ls"},
	Example: `% configsvc list --type annex --pattern '^m1/'
PATH         	TYPE 	REVISION                   	COMMENT
m1/lookup.bin	annex	2HwQv4XZ0y5bKkJ1nTDPmyqgvqs	lookup table`,
	Run: func(cmd *cobra.Command, args []string) {
		w, err := openService(cmd)
		if err != nil {
			wrapFatalln("open config service", err)
			return
		}
		defer closeService(w)

		infos, err := w.Service.List(commandContext(), service.ListFilter{
			Type:    model.FileType(configsvcFlags.list.Type),
			Pattern: configsvcFlags.list.Pattern,
		})
		if err != nil {
			wrapFatalln("list", err)
			return
		}

		err = render(cmd, infos, func(table *uitable.Table) {
			table.AddRow(header("PATH", "TYPE", "REVISION", "COMMENT")...)
			for _, info := range infos {
				table.AddRow(info.Path, info.Type, info.ID, info.Comment)
			}
		})
		if err != nil {
			wrapFatalln("render", err)
		}
	},
}

func init() {
	addFileTypeFlag(listCmd)
	addPatternFlag(listCmd)
	addFormatFlag(listCmd, formatTable)
	rootCmd.AddCommand(listCmd)
}
