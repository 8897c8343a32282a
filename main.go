package main

import (
	"os"

	"github.com/mkoster/querylens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
