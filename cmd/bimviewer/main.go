package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "bimviewer",
		Short: "Guided 3D tours through building archetypes",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(catalogueCmd())
	root.AddCommand(tourCmd())
	root.AddCommand(snapshotCmd())
	root.AddCommand(recordCmd())
	root.AddCommand(castCmd())
	root.AddCommand(windowCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
