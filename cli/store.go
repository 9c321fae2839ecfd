// ABOUTME: store and sync subcommands for the local key-value store
// ABOUTME: Inspect keys, export or import dumps, and sync the charm backend
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect and maintain local storage",
	}
	cmd.AddCommand(newStoreKeysCommand(rootOpts))
	cmd.AddCommand(newStoreExportCommand(rootOpts))
	cmd.AddCommand(newStoreImportCommand(rootOpts))
	cmd.AddCommand(newStoreClearCommand(rootOpts))
	return cmd
}

func newStoreKeysCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List stored keys without the base prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			keys, err := app.Store.ListKeys(cmd.Context())
			if err != nil {
				return err
			}
			return rootOpts.emit(cmd.OutOrStdout(), keys, func() error {
				for _, k := range keys {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	}
}

func newStoreExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored record as one JSON object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			dump, err := app.Store.Export(cmd.Context())
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(dump, "", "  ")
			if err != nil {
				return err
			}
			if output == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d keys to %s\n", len(dump), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newStoreImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import an export or a browser localStorage dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var dump map[string]json.RawMessage
			if err := json.Unmarshal(data, &dump); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			n, err := app.Store.Import(cmd.Context(), dump)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d of %d keys\n", n, len(dump))
			return nil
		},
	}
}

func newStoreClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every key under the base prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear local storage without --yes")
			}
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if err := app.Store.Clear(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Local storage cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}

func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the charm-backed local store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "now",
		Short: "Push and pull local records through the charm server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if app.Charm == nil {
				return fmt.Errorf("sync needs the charm storage backend (current: %s)", app.Config.Storage)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Syncing with %s...\n", app.Charm.Host())
			if err := app.Charm.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			if id, err := app.Charm.ID(); err == nil {
				_, _ = fmt.Fprintf(out, "✓ Synced (account %s)\n", id)
			} else {
				_, _ = fmt.Fprintln(out, "✓ Synced (ID unavailable)")
			}
			return nil
		},
	})
	return cmd
}
