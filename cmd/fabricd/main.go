// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command fabricd runs the associative-graph store as a standalone
// daemon: an HTTP/websocket surface over services/fabricsrv, plus a "top"
// subcommand for watching it live.
//
// Usage:
//
//	fabricd serve --config fabricd.yaml
//	fabricd top --addr localhost:8080
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "fabricd",
	Short: "Runs the fabric associative-graph store",
	Long: `fabricd hosts a fabric.Fabric in memory and exposes it over
HTTP and websocket: query/define/partners/unique, a live change stream,
and process stats.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "fabricd.yaml", "path to the daemon's YAML config")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(topCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("fabricd: %v", err)
	}
}
