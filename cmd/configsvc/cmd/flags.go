// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"time"

	"github.com/go-openapi/runtime/flagext"
	"github.com/spf13/cobra"
)

type flagsT struct {
	file struct {
		Path     string
		Input    string
		Output   string
		Comment  string
		Oversize bool
		ID       string
		Time     string
		Default  bool
		MinSize  flagext.ByteSize
	}
	list struct {
		Type    string
		Pattern string
	}
	history struct {
		Max     int
		From    string
		To      string
		Default bool
	}
	root struct {
		configFile string
		cpuProf    bool
	}
}

var configsvcFlags = flagsT{}

func addPathFlag(cmd *cobra.Command) string {
	path := "path"
	cmd.Flags().StringVar(&configsvcFlags.file.Path, path, "", "The path of the configuration file in the store")
	return path
}

func addInputFlag(cmd *cobra.Command) string {
	input := "file"
	cmd.Flags().StringVar(&configsvcFlags.file.Input, input, "", "The local file to upload. Defaults to reading stdin")
	return input
}

func addOutputFlag(cmd *cobra.Command) string {
	output := "output"
	cmd.Flags().StringVar(&configsvcFlags.file.Output, output, "", "The local file to write. Defaults to writing stdout")
	return output
}

func addCommentFlag(cmd *cobra.Command) string {
	comment := "comment"
	cmd.Flags().StringVarP(&configsvcFlags.file.Comment, comment, "m", "", "A comment describing the change")
	return comment
}

func addOversizeFlag(cmd *cobra.Command) string {
	oversize := "oversize"
	cmd.Flags().BoolVar(&configsvcFlags.file.Oversize, oversize, false, "Stores the file in the annex")
	return oversize
}

func addMinSizeFlag(cmd *cobra.Command) string {
	minSize := "annex-min-size"
	cmd.Flags().Var(&configsvcFlags.file.MinSize, minSize,
		"Stores the file in the annex when larger than this size (e.g. 10MB). Overrides the annex.minFileSize setting")
	return minSize
}

func addRevisionFlag(cmd *cobra.Command) string {
	id := "id"
	cmd.Flags().StringVar(&configsvcFlags.file.ID, id, "", "The id of a revision")
	return id
}

func addTimeFlag(cmd *cobra.Command) string {
	at := "time"
	cmd.Flags().StringVar(&configsvcFlags.file.Time, at, "", "Retrieves the revision active at this time (RFC3339)")
	return at
}

func addDefaultFlag(cmd *cobra.Command, usage string) string {
	dflt := "default"
	cmd.Flags().BoolVar(&configsvcFlags.file.Default, dflt, false, usage)
	return dflt
}

func addFileTypeFlag(cmd *cobra.Command) string {
	fileType := "type"
	cmd.Flags().StringVar(&configsvcFlags.list.Type, fileType, "", "Only lists files of this type: normal or annex")
	return fileType
}

func addPatternFlag(cmd *cobra.Command) string {
	pattern := "pattern"
	cmd.Flags().StringVar(&configsvcFlags.list.Pattern, pattern, "", "A regular expression (RE2) to match paths")
	return pattern
}

func addMaxFlag(cmd *cobra.Command) string {
	maxEntries := "max"
	cmd.Flags().IntVar(&configsvcFlags.history.Max, maxEntries, 0, "The maximum number of entries. 0 means no limit")
	return maxEntries
}

func addRangeFlags(cmd *cobra.Command) (string, string) {
	from, to := "from", "to"
	cmd.Flags().StringVar(&configsvcFlags.history.From, from, "", "Only lists revisions committed at or after this time (RFC3339)")
	cmd.Flags().StringVar(&configsvcFlags.history.To, to, "", "Only lists revisions committed at or before this time (RFC3339)")
	return from, to
}

func addFormatFlag(cmd *cobra.Command, dflt string) string {
	format := "format"
	cmd.Flags().String(format, dflt,
		fmt.Sprintf("The output format: %s, %s or %s", formatTable, formatYAML, formatJSON))
	return format
}

func requireFlags(cmd *cobra.Command, flags ...string) {
	for _, flag := range flags {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			logFatalln(err)
		}
	}
}

// parseTime reads an optional time flag
func parseTime(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}
