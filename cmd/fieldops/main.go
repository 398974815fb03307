package main

import (
	"os"

	"github.com/fieldops/companion/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
