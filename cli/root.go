// ABOUTME: Root cobra command, global flags and per-process setup
// ABOUTME: Loads config and the logger before any subcommand runs
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duoproservices/portal/config"
	"github.com/duoproservices/portal/controller"
	"github.com/duoproservices/portal/logging"
)

// Version is overridden at build time.
var Version = "0.2.0"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Format     string // "json" | "text"

	cfg    *config.Config
	logger *zap.Logger
	app    *App
	stderr io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the portal CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "duopro",
		Short:        "Duo Pro Services portal data tools",
		Long:         "Manage tasks, leads, the social calendar, invoices and team activity.\nWorks against the hosted backend and falls back to local storage when it is unreachable.",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.stderr = cmd.ErrOrStderr()
			return opts.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: $XDG_DATA_HOME/duopro/config.json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewReconnectCommand(opts))
	cmd.AddCommand(NewTasksCommand(opts))
	cmd.AddCommand(NewLeadsCommand(opts))
	cmd.AddCommand(NewPostsCommand(opts))
	cmd.AddCommand(NewInvoicesCommand(opts))
	cmd.AddCommand(NewActivityCommand(opts))
	cmd.AddCommand(NewClientsCommand(opts))
	cmd.AddCommand(NewStoreCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewMCPCommand(opts))
	cmd.AddCommand(NewTUICommand(opts))

	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *RootOptions) setup() error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	o.cfg = cfg

	// Logs go to a file by default so stdout (and the MCP stdio channel) stay clean
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(cfg.DataDir, config.AppName+".log")
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: logFile})
	if err != nil {
		return err
	}
	o.logger = logger
	return nil
}

// App opens the store and controllers on first use.
func (o *RootOptions) App() (*App, error) {
	if o.app != nil {
		return o.app, nil
	}
	if o.cfg == nil {
		if err := o.setup(); err != nil {
			return nil, err
		}
	}
	var notifier controller.Notifier
	if o.stderr != nil {
		notifier = NewToastNotifier(o.stderr)
	}
	app, err := NewApp(o.cfg, o.logger, notifier)
	if err != nil {
		return nil, err
	}
	o.app = app
	return app, nil
}

func (o *RootOptions) close() error {
	if o.app == nil {
		if o.logger != nil {
			_ = o.logger.Sync()
		}
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// emit writes v as indented JSON when --format json is set, otherwise calls text.
func (o *RootOptions) emit(w io.Writer, v any, text func() error) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text()
}
