// Command fdakit cleans and profiles CSV tables from the command line and
// serves the same operations over HTTP.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("execution failed", "error", err)
		os.Exit(1)
	}
}
