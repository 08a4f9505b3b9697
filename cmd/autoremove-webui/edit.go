package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Roelanb/autoremove-webui/internal/editor"
	"github.com/Roelanb/autoremove-webui/internal/observability"
	"github.com/Roelanb/autoremove-webui/internal/tui"
)

func editCmd() *cobra.Command {
	var server, logFile, logLevel string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the configuration in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout belongs to the terminal UI
			logger := observability.NewFileLogger(logLevel, logFile)
			defer logger.Sync() //nolint:errcheck

			ed := editor.New(editor.NewClient(server, nil), logger)
			p := tea.NewProgram(tui.New(ed, logger), tea.WithAltScreen())
			logger.Infow("editor started", "server", server)
			_, err := p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://127.0.0.1:8080", "Backend base URL")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file (default: discard)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	return cmd
}
