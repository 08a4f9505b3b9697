package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Roelanb/autoremove-webui/internal/api"
)

// Backend version injected at build time with: -ldflags "-X 'main.version=1.2.3'"
var version = "dev"

func main() {
	api.Version = version

	rootCmd := &cobra.Command{
		Use:           "autoremove-webui",
		Short:         "Edit and run autoremove-torrents configurations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(editCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
