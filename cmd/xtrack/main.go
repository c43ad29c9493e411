package main

import (
	"os"

	"github.com/trickstertwo/xtrack/cmd/xtrack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
