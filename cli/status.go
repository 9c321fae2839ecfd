// ABOUTME: status and reconnect commands
// ABOUTME: Loads every module concurrently and reports its connectivity mode
package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/duoproservices/portal/connectivity"
)

// ModuleReport is one row of the status output.
type ModuleReport struct {
	Module      string `json:"module"`
	Mode        string `json:"mode"`
	Records     int    `json:"records"`
	OfflineFlag bool   `json:"offline_flag"`
}

type StatusReport struct {
	Backend   string         `json:"backend"`
	Storage   string         `json:"storage"`
	Available bool           `json:"available"`
	User      string         `json:"user,omitempty"`
	Modules   []ModuleReport `json:"modules"`
}

// loadFunc loads one module and returns how many records it holds.
type loadFunc func(ctx context.Context) (int, error)

func counted[T any](load func(context.Context) ([]T, error)) loadFunc {
	return func(ctx context.Context) (int, error) {
		items, err := load(ctx)
		return len(items), err
	}
}

// loadAll loads every module concurrently, the way the dashboard does on open.
func loadAll(ctx context.Context, app *App, reconnect bool) (StatusReport, error) {
	loads := []loadFunc{
		counted(app.Clients.Load),
		counted(app.Projects.Load),
		counted(app.Social.Load),
		counted(app.CRM.Load),
	}
	if reconnect {
		loads = []loadFunc{
			counted(app.Clients.Reconnect),
			counted(app.Projects.Reconnect),
			counted(app.Social.Reconnect),
			counted(app.CRM.Reconnect),
		}
	}

	counts := make([]int, len(loads))
	// No shared cancellation: one module's local read error must not abort
	// the others' remote fetches.
	var g errgroup.Group
	for i, load := range loads {
		g.Go(func() error {
			n, err := load(ctx)
			counts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return StatusReport{}, err
	}

	report := StatusReport{
		Backend: app.Config.BackendURL,
		Storage: app.Config.Storage,
		User:    app.Actor(ctx),
	}
	_, report.Available = app.Gate.LastCheck()
	for i, m := range app.Modules() {
		report.Modules = append(report.Modules, ModuleReport{
			Module:      m.Module(),
			Mode:        m.State().Mode.String(),
			Records:     counts[i],
			OfflineFlag: m.Flag().IsSet(ctx),
		})
	}
	return report, nil
}

func (o *RootOptions) printStatus(cmd *cobra.Command, report StatusReport) error {
	return o.emit(cmd.OutOrStdout(), report, func() error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Backend: %s\nStorage: %s\nUser:    %s\n\n", orDash(report.Backend), report.Storage, report.User)
		rows := make([][]string, 0, len(report.Modules))
		for _, m := range report.Modules {
			flag := ""
			if m.OfflineFlag {
				flag = "sticky"
			}
			rows = append(rows, []string{m.Module, m.Mode, strconv.Itoa(m.Records), flag})
		}
		printTable(out, "No modules.", []string{"Module", "Mode", "Records", "Offline flag"}, rows)
		return nil
	})
}

func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend reachability and the mode of every module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			report, err := loadAll(cmd.Context(), app, false)
			if err != nil {
				return err
			}
			return rootOpts.printStatus(cmd, report)
		},
	}
}

func NewReconnectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconnect",
		Short: "Clear offline mode and retry the backend for every module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			report, err := loadAll(cmd.Context(), app, true)
			if err != nil {
				return err
			}
			offline := 0
			for _, m := range report.Modules {
				if m.Mode == connectivity.Offline.String() {
					offline++
				}
			}
			if err := rootOpts.printStatus(cmd, report); err != nil {
				return err
			}
			if offline > 0 && rootOpts.Format == "text" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d module(s) still offline\n", offline)
			}
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
