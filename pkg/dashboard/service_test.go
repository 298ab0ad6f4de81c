package dashboard

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/klokku/calmcash/internal/utils"
	"github.com/klokku/calmcash/pkg/api"
	"github.com/klokku/calmcash/pkg/auth"
	"github.com/klokku/calmcash/pkg/budget"
	"github.com/klokku/calmcash/pkg/draft"
	"github.com/klokku/calmcash/pkg/kv"
	"github.com/klokku/calmcash/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "Correct-Horse-9"
)

var ctx = context.Background()

type fixture struct {
	auth    *auth.ClientStub
	budgets *budget.ClientStub
	manager *session.Manager
	service Service
}

func setup(t *testing.T) fixture {
	authStub := auth.NewClientStub()
	authStub.AddUser(testEmail, testPassword, "Ada Lovelace")
	budgetStub := budget.NewClientStub()
	budgetStub.SetAuthorizer(authStub.ValidAccess)

	manager := session.NewManager(kv.NewMemoryStore(), authStub, nil)
	err := manager.Authenticate(ctx, auth.ModeLogin, auth.Credentials{Email: testEmail, Password: testPassword})
	require.NoError(t, err)

	clock := &utils.MockClock{FixedNow: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	return fixture{
		auth:    authStub,
		budgets: budgetStub,
		manager: manager,
		service: NewDashboardService(manager, budgetStub, clock),
	}
}

func monthlyBudget(name, startDate string) budget.Budget {
	return budget.Budget{
		Name:       name,
		PeriodType: budget.PeriodMonthly,
		Status:     budget.StatusActive,
		StartDate:  startDate,
		Currency:   "USD",
	}
}

func TestLoad(t *testing.T) {
	t.Run("should load the current month", func(t *testing.T) {
		// given
		f := setup(t)
		groceries := f.budgets.AddCategory("Groceries")
		october := f.budgets.AddBudget(monthlyBudget("October", "2026-10-01"))
		f.budgets.AddBudget(monthlyBudget("September", "2026-09-01"))
		f.budgets.AddAlert(budget.AlertBudget80, "Groceries at 80%")
		_, err := f.service.AddTransaction(ctx, TransactionInput{
			BudgetId:   october.Id,
			CategoryId: groceries.Id,
			Merchant:   "Market",
			Amount:     "-12.50",
			Date:       "2026-10-03",
		})
		require.NoError(t, err)

		// when
		snapshot, err := f.service.Load(ctx, "", "")

		// then
		require.NoError(t, err)
		assert.Equal(t, "2026-10", snapshot.Month)
		assert.Equal(t, "October 2026", snapshot.MonthLabel)
		assert.Equal(t, testEmail, snapshot.Profile.Email)
		assert.Len(t, snapshot.Categories, 1)
		require.Len(t, snapshot.Budgets, 1)
		assert.Equal(t, october.Id, snapshot.SelectedBudgetId)
		require.NotNil(t, snapshot.Summary)
		assert.Equal(t, int64(1250), snapshot.Summary.ExpenseCents)
		assert.Len(t, snapshot.Transactions, 1)
		assert.Equal(t, 1, snapshot.UnreadAlerts())
		assert.Equal(t, "Groceries", snapshot.CategoryNames()[groceries.Id])

		assert.Equal(t, budget.ListBudgetsParams{
			PeriodType:    budget.PeriodMonthly,
			Status:        budget.StatusActive,
			StartDateFrom: "2026-10-01",
			StartDateTo:   "2026-10-31",
		}, f.budgets.LastListBudgetsParams())
		assert.Equal(t, 100, f.budgets.LastTransactionFilter().Limit)

		profile, ok := f.manager.Profile()
		assert.True(t, ok)
		assert.Equal(t, "Ada Lovelace", profile.DisplayName)
	})

	t.Run("should select the preferred budget when listed", func(t *testing.T) {
		// given
		f := setup(t)
		first := f.budgets.AddBudget(monthlyBudget("First", "2026-10-01"))
		second := f.budgets.AddBudget(monthlyBudget("Second", "2026-10-15"))

		// when
		preferred, err := f.service.Load(ctx, "2026-10", second.Id)
		require.NoError(t, err)
		fallback, err := f.service.Load(ctx, "2026-10", "missing")
		require.NoError(t, err)

		// then
		assert.Equal(t, second.Id, preferred.SelectedBudgetId)
		selected, ok := preferred.SelectedBudget()
		assert.True(t, ok)
		assert.Equal(t, "Second", selected.Name)
		assert.Equal(t, first.Id, fallback.SelectedBudgetId)
	})

	t.Run("should skip summary when the month has no budget", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		snapshot, err := f.service.Load(ctx, "2026-11", "")

		// then
		require.NoError(t, err)
		assert.Empty(t, snapshot.SelectedBudgetId)
		assert.Nil(t, snapshot.Summary)
		assert.Empty(t, snapshot.Transactions)
		assert.Equal(t, 0, f.budgets.Calls("Summary"))
		assert.Equal(t, 0, f.budgets.Calls("ListTransactions"))
	})

	t.Run("should refresh once when access tokens expired", func(t *testing.T) {
		// given
		f := setup(t)
		f.budgets.AddBudget(monthlyBudget("October", "2026-10-01"))
		f.auth.ExpireAccessTokens()

		// when
		snapshot, err := f.service.Load(ctx, "2026-10", "")

		// then
		require.NoError(t, err)
		assert.NotNil(t, snapshot.Summary)
		assert.Equal(t, 1, f.auth.RefreshCalls())
		assert.True(t, f.manager.IsAuthenticated())
	})

	t.Run("should expire the session when refresh is rejected", func(t *testing.T) {
		// given
		f := setup(t)
		f.auth.ExpireAccessTokens()
		f.auth.RevokeRefreshTokens()

		// when
		_, err := f.service.Load(ctx, "2026-10", "")

		// then
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.Equal(t, SessionExpiredMessage, Message(err))
		assert.False(t, f.manager.IsAuthenticated())
	})

	t.Run("should keep the session on server errors", func(t *testing.T) {
		// given
		f := setup(t)
		f.budgets.FailOn("ListCategories", &api.APIError{Status: http.StatusInternalServerError})

		// when
		_, err := f.service.Load(ctx, "2026-10", "")

		// then
		var opErr *OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, "Unable to load your dashboard data.", opErr.Message)
		assert.Equal(t, http.StatusInternalServerError, api.StatusOf(err))
		assert.True(t, f.manager.IsAuthenticated())
		assert.Equal(t, 0, f.auth.RefreshCalls())
	})

	t.Run("should reject an invalid month", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.Load(ctx, "October", "")

		// then
		var inputErr *InputError
		assert.ErrorAs(t, err, &inputErr)
	})

	t.Run("should report a missing session", func(t *testing.T) {
		// given
		f := setup(t)
		f.manager.ClearSession(ctx)

		// when
		_, err := f.service.Load(ctx, "2026-10", "")

		// then
		assert.ErrorIs(t, err, session.ErrNoSession)
	})
}

func TestCreateBudget(t *testing.T) {
	t.Run("should create a budget from a validated draft", func(t *testing.T) {
		// given
		f := setup(t)
		rent := f.budgets.AddCategory("Rent")
		d, err := draft.NewDraft("2026-10", []budget.Category{rent}, draft.Counter("row"))
		require.NoError(t, err)
		d.TotalInput = "1200"
		d.UpdateRow(d.Rows()[0].Id, draft.RowPatch{LimitInput: ptr("1200")})
		submission, err := d.Submit()
		require.NoError(t, err)

		// when
		created, err := f.service.CreateBudget(ctx, submission)

		// then
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "USD", created.Currency)
		assert.Equal(t, int64(120000), created.TotalLimitCents)
		require.Len(t, created.CategoryLimits, 1)
		assert.Equal(t, "Rent", created.CategoryLimits[0].CategoryName)
	})

	t.Run("should accept an empty response", func(t *testing.T) {
		// given
		f := setup(t)
		f.budgets.SetEmptyResponses(true)

		// when
		created, err := f.service.CreateBudget(ctx, draft.Submission{Name: "Empty", PeriodType: budget.PeriodMonthly, StartDate: "2026-10-01"})

		// then
		require.NoError(t, err)
		assert.Nil(t, created)
		assert.Len(t, f.budgets.Budgets(), 1)
	})

	t.Run("should reject a blank name without calling the backend", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.CreateBudget(ctx, draft.Submission{Name: "  ", StartDate: "2026-10-01"})

		// then
		var inputErr *InputError
		require.ErrorAs(t, err, &inputErr)
		assert.Equal(t, "Budget requires a name and start date.", inputErr.Message)
		assert.Equal(t, 0, f.budgets.Calls("CreateBudget"))
	})

	t.Run("should surface backend validation details", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.CreateBudget(ctx, draft.Submission{Name: "Bad", PeriodType: budget.PeriodMonthly, StartDate: "soon"})

		// then
		assert.Equal(t, "Validation failed: startDate: invalid date", Message(err))
	})
}

func TestAddCategory(t *testing.T) {
	// given
	f := setup(t)

	// when
	created, err := f.service.AddCategory(ctx, "  Travel ")
	_, blankErr := f.service.AddCategory(ctx, " ")

	// then
	require.NoError(t, err)
	assert.Equal(t, "Travel", created.Name)
	var inputErr *InputError
	assert.ErrorAs(t, blankErr, &inputErr)
	assert.Equal(t, 1, f.budgets.Calls("CreateCategory"))
}

func TestSetCategoryLimit(t *testing.T) {
	t.Run("should use the default colour", func(t *testing.T) {
		// given
		f := setup(t)
		food := f.budgets.AddCategory("Food")
		b := f.budgets.AddBudget(monthlyBudget("October", "2026-10-01"))

		// when
		updated, err := f.service.SetCategoryLimit(ctx, b.Id, food.Id, "250.005", "")

		// then
		require.NoError(t, err)
		require.Len(t, updated.CategoryLimits, 1)
		assert.Equal(t, int64(25001), updated.CategoryLimits[0].LimitCents)
		assert.Equal(t, DefaultColorHex, updated.CategoryLimits[0].ColorHex)
	})

	t.Run("should reject non-positive limits", func(t *testing.T) {
		// given
		f := setup(t)

		for _, input := range []string{"0", "-5", "abc", ""} {
			// when
			_, err := f.service.SetCategoryLimit(ctx, "budget", "category", input, "#000000")

			// then
			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr, input)
			assert.Equal(t, "Choose a budget/category and a positive limit amount.", inputErr.Message)
		}
		assert.Equal(t, 0, f.budgets.Calls("UpsertCategoryLimit"))
	})
}

func TestAddTransaction(t *testing.T) {
	t.Run("should build the request from the input", func(t *testing.T) {
		// given
		f := setup(t)
		b := f.budgets.AddBudget(monthlyBudget("October", "2026-10-01"))

		// when
		created, err := f.service.AddTransaction(ctx, TransactionInput{
			BudgetId:    b.Id,
			Merchant:    " Employer ",
			Description: "   ",
			Amount:      "3000",
			Date:        "2026-10-01",
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "Employer", created.Merchant)
		assert.Nil(t, created.CategoryId)
		assert.Nil(t, created.Description)
		assert.Equal(t, int64(300000), created.AmountCents)
		assert.Equal(t, budget.SourceManual, created.Source)
	})

	t.Run("should reject incomplete input", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.AddTransaction(ctx, TransactionInput{BudgetId: "b", Merchant: "Shop", Amount: "1"})

		// then
		var inputErr *InputError
		require.ErrorAs(t, err, &inputErr)
		assert.Equal(t, "Transaction requires a budget, merchant, amount, and date.", inputErr.Message)
	})
}

func TestMarkAlertRead(t *testing.T) {
	// given
	f := setup(t)
	alert := f.budgets.AddAlert(budget.AlertSystem, "Welcome")

	// when
	read, err := f.service.MarkAlertRead(ctx, alert.Id)
	_, missingErr := f.service.MarkAlertRead(ctx, "missing")

	// then
	require.NoError(t, err)
	assert.False(t, read.Unread())
	assert.Equal(t, "Alert not found", Message(missingErr))

	unread, err := f.service.Alerts(ctx, true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, SessionExpiredMessage, Message(ErrSessionExpired))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func ptr[T any](v T) *T {
	return &v
}

func TestProfile(t *testing.T) {
	t.Run("should return the signed in user", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		profile, err := f.service.Profile(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", profile.DisplayName)
	})

	t.Run("should expire the session when me keeps rejecting", func(t *testing.T) {
		// given
		f := setup(t)
		f.auth.SetMeError(&api.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"})

		// when
		_, err := f.service.Profile(ctx)

		// then
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.False(t, f.manager.IsAuthenticated())
		assert.Equal(t, 1, f.auth.RefreshCalls())
	})
}
