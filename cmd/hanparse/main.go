package main

import (
	"os"

	"github.com/DevHeauk/han-parse/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
