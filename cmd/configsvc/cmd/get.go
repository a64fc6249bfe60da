package cmd

import (
	"fmt"

	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/oneconcern/configsvc/pkg/service/status"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Get a configuration file",
	Long: `Get a revision of a configuration file: the latest one, unless a revision id, a time
or the default revision is requested.`,
	Example: `% configsvc get --path tcs/tcs1.conf --time 2020-06-01T12:00:00Z --output ./tcs1.conf`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := configsvcFlags.file
		selectors := 0
		for _, selected := range []bool{flags.ID != "", flags.Time != "", flags.Default} {
			if selected {
				selectors++
			}
		}
		if selectors > 1 {
			wrapFatalln("get", status.ErrInvalidInput.WrapMessage("--id, --time and --default are mutually exclusive"))
			return
		}
		at, err := parseTime("time", flags.Time)
		if err != nil {
			wrapFatalln("get", status.ErrInvalidInput.Wrap(err))
			return
		}

		w, err := openService(cmd)
		if err != nil {
			wrapFatalln("open config service", err)
			return
		}
		defer closeService(w)

		ctx := commandContext()
		var data *model.ConfigData
		switch {
		case flags.ID != "":
			data, err = w.Service.GetByID(ctx, flags.Path, model.RevisionID(flags.ID))
		case flags.Time != "":
			data, err = w.Service.GetByTime(ctx, flags.Path, at)
		case flags.Default:
			data, err = w.Service.GetDefault(ctx, flags.Path)
		default:
			data, err = w.Service.GetLatest(ctx, flags.Path)
		}
		if err != nil {
			wrapFatalln("get "+flags.Path, err)
			return
		}
		if data == nil {
			wrapFatalln("get "+flags.Path, status.ErrFileNotFound.WrapMessage("no such revision"))
			return
		}

		output, err := openOutput(cmd)
		if err != nil {
			wrapFatalln("open output", err)
			return
		}
		if _, err = data.WriteTo(output); err != nil {
			_ = output.Close()
			wrapFatalln(fmt.Sprintf("write %s", flags.Path), err)
			return
		}
		if err = output.Close(); err != nil {
			wrapFatalln("close output", err)
		}
	},
}

func init() {
	requireFlags(getCmd, addPathFlag(getCmd))
	addRevisionFlag(getCmd)
	addTimeFlag(getCmd)
	addDefaultFlag(getCmd, "Gets the default revision")
	addOutputFlag(getCmd)
	rootCmd.AddCommand(getCmd)
}
