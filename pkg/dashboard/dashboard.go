package dashboard

import (
	"errors"

	"github.com/klokku/calmcash/pkg/auth"
	"github.com/klokku/calmcash/pkg/budget"
)

const (
	SessionExpiredMessage = "Your session expired. Please sign in again."
	DefaultColorHex       = "#68B531"
	alertsLimit           = 10
	transactionsLimit     = 100
)

// ErrSessionExpired is returned after the backend rejected the session for
// good. The local session has been cleared by then.
var ErrSessionExpired = errors.New("session expired")

// InputError is a local validation failure. Nothing was sent to the backend.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// OperationError is a backend or transport failure rendered for display.
type OperationError struct {
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Message renders any error returned by the Service for display.
func Message(err error) string {
	if errors.Is(err, ErrSessionExpired) {
		return SessionExpiredMessage
	}
	return err.Error()
}

// Snapshot is everything the dashboard shows for one month.
type Snapshot struct {
	Month            string
	MonthLabel       string
	Profile          auth.Profile
	Categories       []budget.Category
	Budgets          []budget.Budget
	Alerts           []budget.Alert
	SelectedBudgetId string
	// Summary is nil when the month has no budget.
	Summary      *budget.Summary
	Transactions []budget.Transaction
}

func (s Snapshot) SelectedBudget() (budget.Budget, bool) {
	for _, b := range s.Budgets {
		if b.Id == s.SelectedBudgetId {
			return b, true
		}
	}
	return budget.Budget{}, false
}

// CategoryNames maps category ids to names.
func (s Snapshot) CategoryNames() map[string]string {
	names := make(map[string]string, len(s.Categories))
	for _, c := range s.Categories {
		names[c.Id] = c.Name
	}
	return names
}

func (s Snapshot) UnreadAlerts() int {
	return budget.UnreadCount(s.Alerts)
}

// resolveBudget picks the preferred budget when it is listed, the first one
// otherwise, or "" when there is none.
func resolveBudget(budgets []budget.Budget, preferredId string) string {
	if preferredId != "" {
		for _, b := range budgets {
			if b.Id == preferredId {
				return preferredId
			}
		}
	}
	if len(budgets) > 0 {
		return budgets[0].Id
	}
	return ""
}

type TransactionInput struct {
	BudgetId    string
	CategoryId  string
	Merchant    string
	Description string
	// Amount is in dollars. Negative amounts are expenses.
	Amount string
	Date   string
	Source budget.TransactionSource
}
