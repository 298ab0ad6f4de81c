package dashboard

import (
	"context"
	"errors"
	"strings"

	"github.com/klokku/calmcash/internal/utils"
	"github.com/klokku/calmcash/pkg/api"
	"github.com/klokku/calmcash/pkg/auth"
	"github.com/klokku/calmcash/pkg/budget"
	"github.com/klokku/calmcash/pkg/draft"
	"github.com/klokku/calmcash/pkg/session"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	Profile(ctx context.Context) (auth.Profile, error)
	Load(ctx context.Context, month string, preferredBudgetId string) (Snapshot, error)
	Categories(ctx context.Context) ([]budget.Category, error)
	Alerts(ctx context.Context, unreadOnly bool, limit int) ([]budget.Alert, error)
	CreateBudget(ctx context.Context, submission draft.Submission) (*budget.Budget, error)
	AddCategory(ctx context.Context, name string) (*budget.Category, error)
	SetCategoryLimit(ctx context.Context, budgetId, categoryId, limitInput, colorHex string) (*budget.Budget, error)
	AddTransaction(ctx context.Context, input TransactionInput) (*budget.Transaction, error)
	MarkAlertRead(ctx context.Context, alertId string) (*budget.Alert, error)
}

type ServiceImpl struct {
	session *session.Manager
	budgets budget.Client
	clock   utils.Clock
}

func NewDashboardService(manager *session.Manager, budgets budget.Client, clock utils.Clock) Service {
	return &ServiceImpl{session: manager, budgets: budgets, clock: clock}
}

// Load fetches the profile, categories, the month's active monthly budgets and
// the latest alerts in parallel, then the summary and transactions of the
// resolved budget. An empty month means the clock's current month.
func (s *ServiceImpl) Load(ctx context.Context, month string, preferredBudgetId string) (Snapshot, error) {
	if month == "" {
		month = utils.CurrentMonth(s.clock)
	}
	from, err := utils.FirstDayOfMonth(month)
	if err != nil {
		return Snapshot{}, &InputError{Message: err.Error()}
	}
	to, _ := utils.LastDayOfMonth(month)
	label, _ := utils.MonthLabel(month)

	snapshot := Snapshot{Month: month, MonthLabel: label}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, err := s.session.RefreshProfile(gctx)
		snapshot.Profile = profile
		return err
	})
	g.Go(func() error {
		categories, err := session.WithValidAccess(gctx, s.session, s.budgets.ListCategories)
		snapshot.Categories = categories
		return err
	})
	g.Go(func() error {
		params := budget.ListBudgetsParams{
			PeriodType:    budget.PeriodMonthly,
			Status:        budget.StatusActive,
			StartDateFrom: from,
			StartDateTo:   to,
		}
		budgets, err := session.WithValidAccess(gctx, s.session, func(ctx context.Context, accessToken string) ([]budget.Budget, error) {
			return s.budgets.ListBudgets(ctx, accessToken, params)
		})
		snapshot.Budgets = budgets
		return err
	})
	g.Go(func() error {
		alerts, err := s.listAlerts(gctx, false, alertsLimit)
		snapshot.Alerts = alerts
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, s.fail(ctx, err, "Unable to load your dashboard data.")
	}

	snapshot.SelectedBudgetId = resolveBudget(snapshot.Budgets, preferredBudgetId)
	if snapshot.SelectedBudgetId == "" {
		log.Debugf("no budget for %s", month)
		return snapshot, nil
	}

	budgetId := snapshot.SelectedBudgetId
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := session.WithValidAccess(gctx, s.session, func(ctx context.Context, accessToken string) (budget.Summary, error) {
			return s.budgets.Summary(ctx, accessToken, budgetId)
		})
		if err == nil {
			snapshot.Summary = &summary
		}
		return err
	})
	g.Go(func() error {
		transactions, err := session.WithValidAccess(gctx, s.session, func(ctx context.Context, accessToken string) ([]budget.Transaction, error) {
			return s.budgets.ListTransactions(ctx, accessToken, budgetId, budget.TransactionFilter{Limit: transactionsLimit})
		})
		snapshot.Transactions = transactions
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, s.fail(ctx, err, "Unable to load your dashboard data.")
	}
	return snapshot, nil
}

// Profile fetches the signed-in user and records it on the session.
func (s *ServiceImpl) Profile(ctx context.Context) (auth.Profile, error) {
	profile, err := s.session.RefreshProfile(ctx)
	if err != nil {
		return auth.Profile{}, s.fail(ctx, err, "Unable to load your profile.")
	}
	return profile, nil
}

func (s *ServiceImpl) Categories(ctx context.Context) ([]budget.Category, error) {
	categories, err := session.WithValidAccess(ctx, s.session, s.budgets.ListCategories)
	if err != nil {
		return nil, s.fail(ctx, err, "Unable to load categories.")
	}
	return categories, nil
}

func (s *ServiceImpl) Alerts(ctx context.Context, unreadOnly bool, limit int) ([]budget.Alert, error) {
	alerts, err := s.listAlerts(ctx, unreadOnly, limit)
	if err != nil {
		return nil, s.fail(ctx, err, "Unable to load alerts.")
	}
	return alerts, nil
}

func (s *ServiceImpl) listAlerts(ctx context.Context, unreadOnly bool, limit int) ([]budget.Alert, error) {
	return session.WithValidAccess(ctx, s.session, func(ctx context.Context, accessToken string) ([]budget.Alert, error) {
		return s.budgets.ListAlerts(ctx, accessToken, unreadOnly, limit)
	})
}

// CreateBudget submits a validated draft. The backend may answer without a
// body, in which case the result is nil.
func (s *ServiceImpl) CreateBudget(ctx context.Context, submission draft.Submission) (*budget.Budget, error) {
	submission.Name = strings.TrimSpace(submission.Name)
	if submission.Name == "" || submission.StartDate == "" {
		return nil, &InputError{Message: "Budget requires a name and start date."}
	}

	created, err := session.WithValidAccess(ctx, s.session, func(ctx context.Context, accessToken string) (*budget.Budget, error) {
		return s.budgets.CreateBudget(ctx, accessToken, submission.Request())
	})
	if err != nil {
		return nil, s.fail(ctx, err, "Unable to create budget.")
	}
	if created != nil {
		log.Infof("budget %s created", created.Id)
	}
	return created, nil
}

func (s *ServiceImpl) AddCategory(ctx context.Context, name string) (*budget.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &InputError{Message: "Category requires a name."}
	}

	created, err := session.WithValidAccess(ctx, s.session, func(ctx context.Context, accessToken string) (*budget.Category, error) {
		return s.budgets.CreateCategory(ctx, accessToken, name)
	})
	if err != nil {
		return nil, s.fail(ctx, err, "Unable to create category.")
	}
	return created, nil
}

// SetCategoryLimit creates or replaces the limit of a category in a budget.
// An empty colorHex uses DefaultColorHex.
func (s *ServiceImpl) SetCategoryLimit(ctx context.Context, budgetId, categoryId, limitInput, colorHex string) (*budget.Budget, error) {
	cents, ok := draft.DollarsToCents(limitInput)
	if budgetId == "" || categoryId == "" || !ok || cents <= 0 {
		return nil, &InputError{Message: "Choose a budget/category and a positive limit amount."}
	}
	if colorHex == "" {
		colorHex = DefaultColorHex
	}

	req := budget.UpsertCategoryLimitRequest{LimitCents: cents, ColorHex: colorHex}
	updated, err := session.WithValidAccess(ctx, s.session, func(ctx context.Context, accessToken string) (*budget.Budget, error) {
		return s.budgets.UpsertCategoryLimit(ctx, accessToken, budgetId, categoryId, req)
	})
	if err != nil {
		return nil, s.fail(ctx, err, "Unable to update category limit.")
	}
	return updated, nil
}

func (s *ServiceImpl) AddTransaction(ctx context.Context, input TransactionInput) (*budget.Transaction, error) {
	merchant := strings.TrimSpace(input.Merchant)
	cents, ok := draft.DollarsToCents(input.Amount)
	if input.BudgetId == "" || merchant == "" || !ok || input.Date == "" {
		return nil, &InputError{Message: "Transaction requires a budget, merchant, amount, and date."}
	}

	req := budget.CreateTransactionRequest{
		BudgetId:        input.BudgetId,
		Merchant:        merchant,
		AmountCents:     cents,
		TransactionDate: input.Date,
		Source:          input.Source,
	}
	if req.Source == "" {
		req.Source = budget.SourceManual
	}
	if input.CategoryId != "" {
		req.CategoryId = &input.CategoryId
	}
	if description := strings.TrimSpace(input.Description); description != "" {
		req.Description = &description
	}

	created, err := session.WithValidAccess(ctx, s.session, func(ctx context.Context, accessToken string) (*budget.Transaction, error) {
		return s.budgets.CreateTransaction(ctx, accessToken, req)
	})
	if err != nil {
		return nil, s.fail(ctx, err, "Unable to create transaction.")
	}
	return created, nil
}

func (s *ServiceImpl) MarkAlertRead(ctx context.Context, alertId string) (*budget.Alert, error) {
	alert, err := session.WithValidAccess(ctx, s.session, func(ctx context.Context, accessToken string) (*budget.Alert, error) {
		return s.budgets.MarkAlertRead(ctx, accessToken, alertId)
	})
	if err != nil {
		return nil, s.fail(ctx, err, "Unable to update alert.")
	}
	return alert, nil
}

// fail maps an error that got past the access guard. A 401 at this point
// means the session cannot be recovered.
func (s *ServiceImpl) fail(ctx context.Context, err error, fallback string) error {
	switch {
	case api.IsUnauthorized(err):
		s.session.Expire(ctx)
		return ErrSessionExpired
	case errors.Is(err, session.ErrNoSession):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	log.Errorf("%s: %v", fallback, err)
	return &OperationError{Message: api.ErrorMessage(err, fallback), Err: err}
}
