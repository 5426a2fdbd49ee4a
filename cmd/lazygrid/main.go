package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "lazygrid",
		Short: "lazygrid - a terminal data grid",
		Long: `lazygrid browses tabular data from CSV files, PostgreSQL tables or HTTP
endpoints with search, per-column filters, sorting, a persistent column
layout and local cell edits.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: user config dir, . or ./config)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lazygrid v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newViewCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
