package main

import (
	"os"

	"github.com/navlab-tools/habctl/cmd/habctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
