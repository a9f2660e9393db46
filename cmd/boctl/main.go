package main

import (
	"os"

	"github.com/MrJamesThe3rd/backoffice/cmd/boctl/internal/command"
)

func main() {
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
