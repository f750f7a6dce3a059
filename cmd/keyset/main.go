// Package main is the entry point for the keyset CLI tool.
package main

import (
	"os"

	"github.com/Alp4ka/keyset/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
