package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/klokku/calmcash/internal/utils"
	"github.com/klokku/calmcash/pkg/budget"
	"github.com/klokku/calmcash/pkg/dashboard"
	"github.com/klokku/calmcash/pkg/draft"
	"github.com/spf13/cobra"
)

func (a *Application) budgetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "List and create budgets",
	}
	cmd.AddCommand(a.budgetsListCommand(), a.budgetsCreateCommand())
	return cmd
}

func (a *Application) budgetsListCommand() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the active monthly budgets of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot, err := a.deps.Dashboard.Load(cmd.Context(), month, "")
			if err != nil {
				return err
			}
			if len(snapshot.Budgets) == 0 {
				a.println(a.render.Muted(fmt.Sprintf("No budgets for %s.", snapshot.MonthLabel)))
				return nil
			}
			a.println(a.render.Table(budgetsTable(snapshot)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month as YYYY-MM, defaults to the current month")
	return cmd
}

func (a *Application) budgetsCreateCommand() *cobra.Command {
	var month, name, period, start, total string
	var limits []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a budget split into category limits",
		Example: "  calmcash budgets create --total 1500 \\\n" +
			"    --limit Rent=1200 --limit Groceries=300:#E74C3C",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if month == "" {
				month = utils.CurrentMonth(a.deps.Clock)
			}

			categories, err := a.deps.Dashboard.Categories(ctx)
			if err != nil {
				return err
			}
			d, err := draft.NewDraft(month, categories, draft.UUIDs())
			if err != nil {
				return &dashboard.InputError{Message: err.Error()}
			}
			if name != "" {
				d.Name = name
			}
			if start != "" {
				d.StartDate = start
			}
			if period != "" {
				periodType, err := budget.ParsePeriodType(period)
				if err != nil {
					return &dashboard.InputError{Message: err.Error()}
				}
				d.PeriodType = periodType
			}
			d.TotalInput = total

			for _, row := range d.Rows() {
				d.RemoveRow(row.Id)
			}
			for _, raw := range limits {
				ref, amount, color, err := parseLimitFlag(raw)
				if err != nil {
					return err
				}
				categoryId, err := resolveCategory(categories, ref)
				if err != nil {
					return err
				}
				row := d.AddRow(categoryId)
				patch := draft.RowPatch{LimitInput: &amount}
				if color != "" {
					patch.ColorHex = &color
				}
				d.UpdateRow(row.Id, patch)
			}

			submission, err := d.Submit()
			if err != nil {
				var validationErr *draft.ValidationError
				if errors.As(err, &validationErr) {
					return &dashboard.InputError{Message: validationErr.Error()}
				}
				return err
			}

			created, err := a.deps.Dashboard.CreateBudget(ctx, submission)
			if err != nil {
				return err
			}
			if created == nil {
				a.println(a.render.Success(fmt.Sprintf("Created budget %q.", submission.Name)))
				return nil
			}
			a.println(a.render.Success(fmt.Sprintf("Created budget %q (%s).", created.Name, created.Id)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month the budget starts in, defaults to the current month")
	cmd.Flags().StringVar(&name, "name", "", `Budget name, defaults to "Budget for <month>"`)
	cmd.Flags().StringVar(&period, "period", "", "WEEKLY or MONTHLY, defaults to MONTHLY")
	cmd.Flags().StringVar(&start, "start", "", "Start date as YYYY-MM-DD, defaults to the first day of the month")
	cmd.Flags().StringVar(&total, "total", "", "Total budget amount in dollars")
	cmd.Flags().StringArrayVar(&limits, "limit", nil, "Category limit as CATEGORY=AMOUNT[:#RRGGBB], repeatable")
	return cmd
}

func (a *Application) limitsCommand() *cobra.Command {
	var budgetId, category, amount, color string

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Create or replace the limit of a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			categories, err := a.deps.Dashboard.Categories(ctx)
			if err != nil {
				return err
			}
			categoryId, err := resolveCategory(categories, category)
			if err != nil {
				return err
			}
			if budgetId == "" {
				if budgetId, err = a.currentBudget(ctx); err != nil {
					return err
				}
			}

			updated, err := a.deps.Dashboard.SetCategoryLimit(ctx, budgetId, categoryId, amount, color)
			if err != nil {
				return err
			}
			msg := "Category limit saved."
			if updated != nil {
				msg = fmt.Sprintf("Category limit saved, %s now totals %s.", updated.Name, draft.FormatCents(updated.TotalLimitCents))
			}
			a.println(a.render.Success(msg))
			return nil
		},
	}
	setCmd.Flags().StringVarP(&budgetId, "budget", "b", "", "Budget id, defaults to the current month's budget")
	setCmd.Flags().StringVar(&category, "category", "", "Category name or id")
	setCmd.Flags().StringVar(&amount, "amount", "", "Limit in dollars")
	setCmd.Flags().StringVar(&color, "color", "", "Colour as #RRGGBB")

	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Manage category limits",
	}
	cmd.AddCommand(setCmd)
	return cmd
}

func (a *Application) summaryCommand() *cobra.Command {
	var month, budgetId string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show spending against limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot, err := a.deps.Dashboard.Load(cmd.Context(), month, budgetId)
			if err != nil {
				return err
			}

			a.println(a.render.Title(fmt.Sprintf("CALM CASH  %s", snapshot.MonthLabel)))
			if snapshot.Summary == nil {
				a.println(a.render.Muted(fmt.Sprintf("No budget for %s. Create one with `calmcash budgets create`.", snapshot.MonthLabel)))
				return nil
			}
			a.println(a.render.Table(a.summaryTable(*snapshot.Summary)))
			if unread := snapshot.UnreadAlerts(); unread > 0 {
				a.println(a.render.Muted(fmt.Sprintf("%d unread alert(s), see `calmcash alerts list`.", unread)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month as YYYY-MM, defaults to the current month")
	cmd.Flags().StringVarP(&budgetId, "budget", "b", "", "Budget id, defaults to the month's first budget")
	return cmd
}

// currentBudget resolves the budget of the current month.
func (a *Application) currentBudget(ctx context.Context) (string, error) {
	month := utils.CurrentMonth(a.deps.Clock)
	snapshot, err := a.deps.Dashboard.Load(ctx, month, "")
	if err != nil {
		return "", err
	}
	if snapshot.SelectedBudgetId == "" {
		return "", &dashboard.InputError{Message: fmt.Sprintf("No budget for %s, pass --budget.", snapshot.MonthLabel)}
	}
	return snapshot.SelectedBudgetId, nil
}

// parseLimitFlag splits CATEGORY=AMOUNT[:#RRGGBB].
func parseLimitFlag(raw string) (category, amount, color string, err error) {
	category, rest, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(category) == "" {
		return "", "", "", &dashboard.InputError{Message: fmt.Sprintf("invalid --limit %q, expected CATEGORY=AMOUNT[:#RRGGBB]", raw)}
	}
	amount, color, _ = strings.Cut(rest, ":")
	return strings.TrimSpace(category), strings.TrimSpace(amount), strings.TrimSpace(color), nil
}

// resolveCategory accepts a category id or a case-insensitive name.
func resolveCategory(categories []budget.Category, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	for _, c := range categories {
		if c.Id == ref {
			return c.Id, nil
		}
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, ref) {
			return c.Id, nil
		}
	}
	return "", &dashboard.InputError{Message: fmt.Sprintf("Unknown category %q.", ref)}
}
