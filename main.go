package main

import (
	"os"

	"github.com/karan9123/Networks/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
