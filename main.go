package main

import (
	"os"

	"github.com/ovoronin/hireloop/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
