package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *Application) categoriesCommand() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories, err := a.deps.Dashboard.Categories(cmd.Context())
			if err != nil {
				return err
			}
			if len(categories) == 0 {
				a.println(a.render.Muted("No categories yet."))
				return nil
			}
			a.println(a.render.Table(categoriesTable(categories)))
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := a.deps.Dashboard.AddCategory(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if created == nil {
				a.println(a.render.Success("Category created."))
				return nil
			}
			a.println(a.render.Success(fmt.Sprintf("Created category %q (%s).", created.Name, created.Id)))
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage spending categories",
	}
	cmd.AddCommand(listCmd, addCmd)
	return cmd
}
