package main

import (
	"os"

	"github.com/ptracectl/ptracectl/cmd/ptracectl/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}
