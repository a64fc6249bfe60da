package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

// tableRows fills a table with some data
type tableRows func(*uitable.Table)

// render data to the command output, in the format selected by its --format flag.
//
// Commands which do not support the table format pass nil rows, and are rendered as yaml.
func render(cmd *cobra.Command, data interface{}, rows tableRows) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if format == formatTable && rows == nil {
		format = formatYAML
	}

	switch format {
	case formatJSON:
		b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case formatYAML:
		b, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case formatTable:
		table := uitable.New()
		table.MaxColWidth = 80
		table.Wrap = true
		rows(table)
		_, err := fmt.Fprintln(w, table)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func header(columns ...string) []interface{} {
	cells := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		cells = append(cells, color.New(color.Bold).Sprint(column))
	}
	return cells
}

func timestamp(t time.Time) string {
	return color.HiBlackString(t.Format(time.RFC3339))
}
