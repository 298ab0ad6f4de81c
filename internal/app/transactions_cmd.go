package app

import (
	"fmt"

	"github.com/klokku/calmcash/internal/utils"
	"github.com/klokku/calmcash/pkg/budget"
	"github.com/klokku/calmcash/pkg/dashboard"
	"github.com/klokku/calmcash/pkg/draft"
	"github.com/spf13/cobra"
)

func (a *Application) transactionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn"},
		Short:   "List and record transactions",
	}
	cmd.AddCommand(a.transactionsListCommand(), a.transactionsAddCommand())
	return cmd
}

func (a *Application) transactionsListCommand() *cobra.Command {
	var month, budgetId string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the latest transactions of a budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot, err := a.deps.Dashboard.Load(cmd.Context(), month, budgetId)
			if err != nil {
				return err
			}
			if snapshot.SelectedBudgetId == "" {
				a.println(a.render.Muted(fmt.Sprintf("No budget for %s.", snapshot.MonthLabel)))
				return nil
			}
			if len(snapshot.Transactions) == 0 {
				a.println(a.render.Muted("No transactions yet."))
				return nil
			}
			a.println(a.render.Table(transactionsTable(snapshot.Transactions, snapshot.CategoryNames())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month as YYYY-MM, defaults to the current month")
	cmd.Flags().StringVarP(&budgetId, "budget", "b", "", "Budget id, defaults to the month's first budget")
	return cmd
}

func (a *Application) transactionsAddCommand() *cobra.Command {
	var input dashboard.TransactionInput
	var category, source string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction, negative amounts are expenses",
		Example: "  calmcash transactions add --merchant Market --amount=-42.10 --category Groceries\n" +
			"  calmcash transactions add --merchant Employer --amount 3000",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var err error
			if category != "" {
				categories, err := a.deps.Dashboard.Categories(ctx)
				if err != nil {
					return err
				}
				if input.CategoryId, err = resolveCategory(categories, category); err != nil {
					return err
				}
			}
			if input.Date == "" {
				input.Date = utils.CurrentDate(a.deps.Clock)
			}
			if source != "" {
				if input.Source, err = budget.ParseTransactionSource(source); err != nil {
					return &dashboard.InputError{Message: err.Error()}
				}
			}
			if input.BudgetId == "" {
				if input.BudgetId, err = a.currentBudget(ctx); err != nil {
					return err
				}
			}

			created, err := a.deps.Dashboard.AddTransaction(ctx, input)
			if err != nil {
				return err
			}
			if created == nil {
				a.println(a.render.Success("Transaction recorded."))
				return nil
			}
			a.println(a.render.Success(fmt.Sprintf("Recorded %s at %s on %s.",
				draft.FormatCents(created.AmountCents), created.Merchant, created.TransactionDate)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input.BudgetId, "budget", "b", "", "Budget id, defaults to the current month's budget")
	cmd.Flags().StringVar(&category, "category", "", "Category name or id")
	cmd.Flags().StringVar(&input.Merchant, "merchant", "", "Merchant")
	cmd.Flags().StringVar(&input.Description, "description", "", "Optional description")
	cmd.Flags().StringVar(&input.Amount, "amount", "", "Amount in dollars, negative for expenses")
	cmd.Flags().StringVar(&input.Date, "date", "", "Date as YYYY-MM-DD, defaults to today")
	cmd.Flags().StringVar(&source, "source", "", "MANUAL, PLAID or IMPORT, defaults to MANUAL")
	return cmd
}
