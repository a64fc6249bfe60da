package cmd

import (
	"github.com/gosuri/uitable"
	"github.com/oneconcern/configsvc/pkg/service/status"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Show the history of a configuration file",
	Long:    `Show the revisions of a configuration file, newest first, or the changes of its default revision`,
	Aliases: []string{"log"},
	Run: func(cmd *cobra.Command, args []string) {
		flags := configsvcFlags.history
		from, err := parseTime("from", flags.From)
		if err != nil {
			wrapFatalln("history", status.ErrInvalidInput.Wrap(err))
			return
		}
		to, err := parseTime("to", flags.To)
		if err != nil {
			wrapFatalln("history", status.ErrInvalidInput.Wrap(err))
			return
		}

		w, err := openService(cmd)
		if err != nil {
			wrapFatalln("open config service", err)
			return
		}
		defer closeService(w)

		ctx := commandContext()
		pth := configsvcFlags.file.Path
		if flags.Default {
			changes, err := w.Service.DefaultHistory(ctx, pth, flags.Max)
			if err != nil {
				wrapFatalln("default history of "+pth, err)
				return
			}
			err = render(cmd, changes, func(table *uitable.Table) {
				table.AddRow(header("TIME", "DEFAULT", "COMMENT")...)
				for _, change := range changes {
					dflt := change.Default.Revision.String()
					if dflt == "" {
						dflt = "(latest)"
					}
					table.AddRow(timestamp(change.Commit.Timestamp), dflt, change.Commit.Comment)
				}
			})
			if err != nil {
				wrapFatalln("render", err)
			}
			return
		}

		entries, err := w.Service.HistoryRange(ctx, pth, from, to, flags.Max)
		if err != nil {
			wrapFatalln("history of "+pth, err)
			return
		}
		err = render(cmd, entries, func(table *uitable.Table) {
			table.AddRow(header("TIME", "REVISION", "COMMENT")...)
			for _, entry := range entries {
				table.AddRow(timestamp(entry.Time), entry.ID, entry.Comment)
			}
		})
		if err != nil {
			wrapFatalln("render", err)
		}
	},
}

func init() {
	requireFlags(historyCmd, addPathFlag(historyCmd))
	addMaxFlag(historyCmd)
	addRangeFlags(historyCmd)
	historyCmd.Flags().BoolVar(&configsvcFlags.history.Default, "default", false, "Shows the changes of the default revision")
	addFormatFlag(historyCmd, formatTable)
	rootCmd.AddCommand(historyCmd)
}
