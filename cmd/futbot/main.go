package main

import (
	"os"

	"futbot/cmd/futbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
