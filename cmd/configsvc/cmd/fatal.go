package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/oneconcern/configsvc/pkg/service/status"
)

const (
	// exit code for business errors, e.g. an unknown file
	exitBusiness = 2
)

var (
	// globals used to patch over calls to os.Exit() during test

	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit

	// infoLogger wraps informative messages to os.Stderr, without cluttering the output of commands
	infoLogger = log.New(os.Stderr, "", 0)

	envKeyReplacer = strings.NewReplacer(".", "_")
)

func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
		return
	}
	if status.IsBusiness(err) {
		wrapFatalWithCodef(exitBusiness, "%s: %v", msg, err)
		return
	}
	logFatalf("%v", fmt.Errorf(msg+": %w", err))
}

func wrapFatalWithCodef(code int, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	osExit(code)
}
