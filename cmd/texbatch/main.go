package main

import (
	"os"

	"github.com/bianoble/texbatch/cmd/texbatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
