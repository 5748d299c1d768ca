package main

import (
	"fmt"
	"os"

	"github.com/compozy/releasesync/cmd"
)

func main() {
	cmd.InitCommands()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "release-sync: %v\n", err)
		os.Exit(1)
	}
}
