package main

import (
	"fmt"
	"os"

	"github.com/fleetwatch/go-fleet-client/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fleetcli: %s\n", err)
		os.Exit(1)
	}
}
