package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/packhost/cmd/config"
	"github.com/zinc-sig/packhost/cmd/helpers"
)

var globalFlags config.GlobalFlags

var rootCmd = &cobra.Command{
	Use:   "packhost",
	Short: "Publish a resource pack and push its URL to connected clients",
	Long: `Packhost uploads a generated resource pack to a hosting provider and
broadcasts the resulting download URL to connected clients.

Providers are selected by name: the built-in polymath and minio backends, or
an external provider registered in-process or loaded from a Go plugin.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	helpers.SetupGlobalFlags(rootCmd, &globalFlags)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(urlCmd)
}
