// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/configsvc/cmd/configsvc/cmd"
)

func main() {
	cmd.Execute()
}
