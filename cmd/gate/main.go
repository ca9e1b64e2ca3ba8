package main

import (
	"os"

	"releasegate/cmd/gate/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
