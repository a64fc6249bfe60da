package cmd

import (
	"github.com/oneconcern/configsvc/pkg/model"
	"github.com/spf13/cobra"
)

var defaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Commands to manage the default revision of configuration files",
	Long: `Commands to manage the default revision of configuration files.

The default revision of a file is its latest revision, unless some revision is pinned.
Changes of the default revision are tracked, see "configsvc history --default".`,
}

var defaultSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Pin a revision as the default revision of a file",
	Run: func(cmd *cobra.Command, args []string) {
		setDefault(cmd, model.RevisionID(configsvcFlags.file.ID))
	},
}

var defaultResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Make the latest revision the default revision of a file again",
	Run: func(cmd *cobra.Command, args []string) {
		setDefault(cmd, "")
	},
}

func setDefault(cmd *cobra.Command, id model.RevisionID) {
	w, err := openService(cmd)
	if err != nil {
		wrapFatalln("open config service", err)
		return
	}
	defer closeService(w)

	if err = w.Service.SetDefault(commandContext(), configsvcFlags.file.Path, id, configsvcFlags.file.Comment); err != nil {
		wrapFatalln("set default of "+configsvcFlags.file.Path, err)
	}
}

func init() {
	requireFlags(defaultSetCmd,
		addPathFlag(defaultSetCmd),
		addRevisionFlag(defaultSetCmd),
		addCommentFlag(defaultSetCmd),
	)
	requireFlags(defaultResetCmd,
		addPathFlag(defaultResetCmd),
		addCommentFlag(defaultResetCmd),
	)
	defaultCmd.AddCommand(defaultSetCmd, defaultResetCmd)
	rootCmd.AddCommand(defaultCmd)
}
