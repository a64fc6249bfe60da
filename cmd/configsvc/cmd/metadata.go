package cmd

import (
	units "github.com/docker/go-units"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Describe the stores behind the config service",
	Run: func(cmd *cobra.Command, args []string) {
		w, err := openService(cmd)
		if err != nil {
			wrapFatalln("open config service", err)
			return
		}
		defer closeService(w)

		md := w.Service.Metadata(commandContext())
		err = render(cmd, md, func(table *uitable.Table) {
			table.AddRow(append(header("REPOSITORY"), md.RepositoryPath)...)
			table.AddRow(append(header("ANNEX"), md.AnnexPath)...)
			table.AddRow(append(header("ANNEX MIN FILE SIZE"), humanSize(md.AnnexMinFileSize))...)
			table.AddRow(append(header("MAX FILE SIZE"), humanSize(md.MaxConfigFileSize))...)
		})
		if err != nil {
			wrapFatalln("render", err)
		}
	},
}

func humanSize(size int64) string {
	if size == 0 {
		return "none"
	}
	return units.HumanSize(float64(size))
}

func init() {
	addFormatFlag(metadataCmd, formatTable)
	rootCmd.AddCommand(metadataCmd)
}
