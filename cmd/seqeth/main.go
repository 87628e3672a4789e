// Package main is the entry point for the seqeth CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/mrz1836/seqeth/internal/cli"
)

func main() {
	// SEQETH_* settings may come from a .env file in the working directory
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
