package main

import (
	"os"

	"github.com/chenaaron3/shortsgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
