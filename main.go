package main

import (
	"os"

	"github.com/AnyUserName/pngpix/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
