// ABOUTME: login and logout commands for the hosted backend
// ABOUTME: Passwords are read without echo when stdin is a terminal
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the portal backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if app.Config.BackendURL == "" {
				return fmt.Errorf("backend_url is not configured (set PORTAL_BACKEND_URL)")
			}

			out := cmd.OutOrStdout()
			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				_, _ = fmt.Fprint(out, "Email: ")
				line, err := in.ReadString('\n')
				if err != nil && err != io.EOF {
					return fmt.Errorf("failed to read email: %w", err)
				}
				email = strings.TrimSpace(line)
			}

			password, err := readPassword(out, in)
			if err != nil {
				return err
			}

			session, err := app.Auth.SignIn(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("sign-in failed: %w", err)
			}
			app.Gate.Record(true)
			_, _ = fmt.Fprintf(out, "✓ Signed in as %s\n", session.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

// readPassword prompts without echo on a terminal and reads a plain line otherwise.
func readPassword(out io.Writer, in *bufio.Reader) (string, error) {
	_, _ = fmt.Fprint(out, "Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		passwordBytes, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(passwordBytes), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if err := app.Auth.SignOut(cmd.Context()); err != nil {
				return fmt.Errorf("failed to forget session: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
			return nil
		},
	}
}
