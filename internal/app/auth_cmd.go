package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klokku/calmcash/pkg/auth"
	"github.com/klokku/calmcash/pkg/credentials"
	"github.com/klokku/calmcash/pkg/dashboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (a *Application) authCommand(mode auth.Mode) *cobra.Command {
	var email, password, displayName string

	cmd := &cobra.Command{
		Use:   string(mode),
		Short: "Sign in to Calm Cash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				p, err := a.readPassword("Password: ")
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				password = p
			}

			result := credentials.Validate(mode, email, password, displayName)
			if result.FirstError != "" {
				return &dashboard.InputError{Message: result.FirstError}
			}
			if !result.CanSubmit {
				if mode == auth.ModeRegister {
					return &dashboard.InputError{Message: "Email, password and a display name of at least 6 characters are required."}
				}
				return &dashboard.InputError{Message: "Email and password are required."}
			}

			ctx := cmd.Context()
			err := a.deps.Session.Authenticate(ctx, mode, auth.Credentials{
				Email:       strings.TrimSpace(email),
				Password:    password,
				DisplayName: strings.TrimSpace(displayName),
			})
			if err != nil {
				return &dashboard.OperationError{Message: credentials.AuthErrorMessage(mode, err), Err: err}
			}

			profile, err := a.deps.Dashboard.Profile(ctx)
			if err != nil {
				return err
			}
			a.println(a.render.Success(fmt.Sprintf("Signed in as %s (%s)", profile.DisplayName, profile.Email)))
			return nil
		},
	}
	if mode == auth.ModeRegister {
		cmd.Short = "Create a Calm Cash account"
		cmd.Flags().StringVar(&displayName, "name", "", "Display name, at least 6 characters")
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password, prompted when omitted")
	return cmd
}

func (a *Application) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.deps.Session.IsAuthenticated() {
				a.println(a.render.Muted("Not signed in."))
				return nil
			}
			a.deps.Session.Logout(cmd.Context())
			a.println("Signed out.")
			return nil
		},
	}
}

func (a *Application) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.deps.Session.IsAuthenticated() {
				a.println(a.render.Muted("Not signed in."))
				return nil
			}
			profile, err := a.deps.Dashboard.Profile(cmd.Context())
			if err != nil {
				return err
			}
			a.println(a.render.Table(cliProfileTable(profile)))
			return nil
		},
	}
}

// readPassword prompts without echo on a terminal and reads a plain line
// otherwise.
func (a *Application) readPassword(prompt string) (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.errOut, prompt)
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	scanner := bufio.NewScanner(a.in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
