package main

import (
	"os"

	"github.com/odyssey-erp/odyssey-desk/cmd/deskctl/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
