package main

import (
	"os"

	"github.com/garyjia/expense-intake/cmd/expensectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
