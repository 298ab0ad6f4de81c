package app

import (
	"fmt"

	"github.com/klokku/calmcash/internal/cli"
	"github.com/klokku/calmcash/pkg/auth"
	"github.com/klokku/calmcash/pkg/budget"
	"github.com/klokku/calmcash/pkg/dashboard"
	"github.com/klokku/calmcash/pkg/draft"
)

func cliProfileTable(profile auth.Profile) cli.Table {
	return cli.Table{
		Title: "Profile",
		Rows: [][]string{
			{"Name", profile.DisplayName},
			{"Email", profile.Email},
			{"User id", profile.UserId},
		},
	}
}

func categoriesTable(categories []budget.Category) cli.Table {
	t := cli.Table{Title: "Categories", Headers: []string{"Name", "Id"}}
	for _, c := range categories {
		t.Rows = append(t.Rows, []string{c.Name, c.Id})
	}
	return t
}

func budgetsTable(snapshot dashboard.Snapshot) cli.Table {
	t := cli.Table{
		Title:   fmt.Sprintf("Budgets for %s", snapshot.MonthLabel),
		Headers: []string{"Name", "Period", "Start", "End", "Limit", "Id"},
	}
	for _, b := range snapshot.Budgets {
		name := b.Name
		if b.Id == snapshot.SelectedBudgetId {
			name = "* " + name
		}
		t.Rows = append(t.Rows, []string{
			name,
			string(b.PeriodType),
			b.StartDate,
			b.EndDate,
			draft.FormatCents(b.TotalLimitCents),
			b.Id,
		})
	}
	return t
}

func (a *Application) summaryTable(summary budget.Summary) cli.Table {
	t := cli.Table{
		Title:   fmt.Sprintf("%s (%s to %s)", summary.BudgetName, summary.StartDate, summary.EndDate),
		Headers: []string{"Category", "Limit", "Spent", "Remaining", "Used"},
	}
	for _, c := range summary.Categories {
		t.Rows = append(t.Rows, []string{
			c.CategoryName,
			optionalCents(c.LimitCents),
			draft.FormatCents(c.SpentCents),
			optionalCents(c.RemainingCents),
			a.render.Utilization(c.UtilizationPct),
		})
	}
	t.Rows = append(t.Rows,
		[]string{"---"},
		[]string{
			"Total",
			draft.FormatCents(summary.TotalLimitCents),
			draft.FormatCents(summary.TotalSpentCents),
			draft.FormatCents(summary.TotalRemainingCents),
			a.render.Utilization(summary.UtilizationPct),
		},
		[]string{"Income", draft.FormatCents(summary.IncomeCents)},
		[]string{"Expenses", draft.FormatCents(summary.ExpenseCents)},
		[]string{"Net", draft.FormatCents(summary.NetCents)},
	)
	return t
}

func optionalCents(cents *int64) string {
	if cents == nil {
		return "-"
	}
	return draft.FormatCents(*cents)
}

func transactionsTable(transactions []budget.Transaction, categoryNames map[string]string) cli.Table {
	t := cli.Table{
		Title:   "Transactions",
		Headers: []string{"Date", "Merchant", "Category", "Amount", "Source"},
	}
	for _, txn := range transactions {
		category := "Uncategorized"
		if txn.CategoryId != nil {
			if name, ok := categoryNames[*txn.CategoryId]; ok {
				category = name
			}
		}
		t.Rows = append(t.Rows, []string{
			txn.TransactionDate,
			txn.Merchant,
			category,
			draft.FormatCents(txn.AmountCents),
			string(txn.Source),
		})
	}
	return t
}

func alertsTable(alerts []budget.Alert) cli.Table {
	t := cli.Table{
		Title:   fmt.Sprintf("Alerts (%d unread)", budget.UnreadCount(alerts)),
		Headers: []string{"Created", "Type", "Message", "Read", "Id"},
	}
	for _, alert := range alerts {
		read := "no"
		if !alert.Unread() {
			read = "yes"
		}
		t.Rows = append(t.Rows, []string{alert.CreatedAt, string(alert.Type), alert.Message, read, alert.Id})
	}
	return t
}
