package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/duoproservices/portal/tui"
)

func NewTUICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse leads, tasks and posts interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The badge shows connectivity; toasts would corrupt the screen
			rootOpts.stderr = nil
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			p := tea.NewProgram(tui.NewModel(app.CRM, app.Projects, app.Social), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}
