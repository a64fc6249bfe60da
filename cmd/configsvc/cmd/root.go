// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/oneconcern/configsvc/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "configsvc",
	Short: "configsvc keeps track of configuration files",
	Long: `configsvc keeps track of configuration files.

Every change to a file is kept as an immutable revision, with a comment.
Any revision may be retrieved by id or by time, and one revision of each file may be
pinned as its default.

Large files are stored once in a content-addressed annex, and tracked by reference.
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configsvcFlags.root.cpuProf {
			f, err := os.Create("cpu.prof")
			if err != nil {
				logFatalln(err)
				return
			}
			_ = pprof.StartCPUProfile(f)
		}
	},
	// upstream api note:  *PostRun functions aren't called in case of a panic() in Run
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if configsvcFlags.root.cpuProf {
			pprof.StopCPUProfile()
		}
	},
}

var settings config.Settings

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configsvcFlags.root.configFile, "config", "",
		"The configuration file to use. Defaults to $CONFIGSVC_CONFIG, then configsvc.yaml in ., $HOME/.configsvc or /etc/configsvc")
	rootCmd.PersistentFlags().BoolVar(&configsvcFlags.root.cpuProf, "cpuprof", false, "Writes a CPU profile to cpu.prof")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)

	switch {
	case configsvcFlags.root.configFile != "":
		v.SetConfigFile(configsvcFlags.root.configFile)
	case os.Getenv("CONFIGSVC_CONFIG") != "":
		// Use config file from the environment.
		v.SetConfigFile(os.Getenv("CONFIGSVC_CONFIG"))
	default:
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.configsvc")
		v.AddConfigPath("/etc/configsvc")
		v.SetConfigName("configsvc")
	}

	v.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := v.ReadInConfig(); err == nil {
		infoLogger.Println("Using config file:", v.ConfigFileUsed())
	}

	var err error
	settings, err = config.Load(v)
	if err != nil {
		wrapFatalln("load settings", err)
		return
	}
}
