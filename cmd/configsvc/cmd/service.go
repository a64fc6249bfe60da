package cmd

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/oneconcern/configsvc/pkg/config"
	"github.com/spf13/cobra"
)

// openService wires the config service from the loaded settings and the command flags
func openService(cmd *cobra.Command) (*config.Wiring, error) {
	s := settings
	if f := cmd.Flags().Lookup("annex-min-size"); f != nil && f.Changed {
		s.Annex.MinFileSize = fmt.Sprintf("%d", int64(configsvcFlags.file.MinSize))
	}
	return config.Open(s)
}

func closeService(w *config.Wiring) {
	if err := w.Close(); err != nil {
		wrapFatalln("close stores", err)
	}
}

func openInput(cmd *cobra.Command) (io.ReadCloser, error) {
	if configsvcFlags.file.Input == "" || configsvcFlags.file.Input == "-" {
		return ioutil.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(configsvcFlags.file.Input)
}

func openOutput(cmd *cobra.Command) (io.WriteCloser, error) {
	if configsvcFlags.file.Output == "" || configsvcFlags.file.Output == "-" {
		return nopWriteCloser{Writer: cmd.OutOrStdout()}, nil
	}
	return os.Create(configsvcFlags.file.Output)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

func commandContext() context.Context {
	return context.Background()
}
