package main

import (
	"os"

	"diagnostic-lead-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
