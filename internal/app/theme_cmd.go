package app

import (
	"fmt"

	"github.com/klokku/calmcash/internal/cli"
	"github.com/klokku/calmcash/pkg/dashboard"
	"github.com/spf13/cobra"
)

func (a *Application) themeCommand() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the colour theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.println(string(a.theme(cmd.Context())))
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:       "set light|dark",
		Short:     "Choose the colour theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(cli.ThemeLight), string(cli.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			theme, err := cli.ParseTheme(args[0])
			if err != nil {
				return &dashboard.InputError{Message: err.Error()}
			}
			if err := a.deps.Store.Set(cmd.Context(), ThemeKey, string(theme)); err != nil {
				return fmt.Errorf("saving theme: %w", err)
			}
			a.render = cli.NewRenderer(theme)
			a.println(a.render.Success(fmt.Sprintf("Theme set to %s.", theme)))
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Colour theme of the output",
	}
	cmd.AddCommand(getCmd, setCmd)
	return cmd
}
