package budget

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/calmcash/pkg/api"
)

// ClientStub is an in-memory budget service. Requests are rejected with 401
// when the authorizer refuses the access token.
type ClientStub struct {
	mu             sync.RWMutex
	authorize      func(accessToken string) bool
	categories     []Category
	budgets        []Budget
	transactions   map[string][]Transaction // budgetId -> transactions
	alerts         []Alert
	failures       map[string]error // operation name -> error
	emptyResponses bool
	calls          map[string]int
	lastBudgets    ListBudgetsParams
	lastFilter     TransactionFilter
}

func NewClientStub() *ClientStub {
	return &ClientStub{
		authorize:    func(accessToken string) bool { return accessToken != "" },
		transactions: make(map[string][]Transaction),
		failures:     make(map[string]error),
		calls:        make(map[string]int),
	}
}

var _ Client = (*ClientStub)(nil)

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SetAuthorizer replaces the access token check, typically with auth.ClientStub.ValidAccess.
func (c *ClientStub) SetAuthorizer(authorize func(accessToken string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authorize = authorize
}

// FailOn makes every call of the named operation (e.g. "Summary") return err.
// A nil err removes the failure.
func (c *ClientStub) FailOn(operation string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, operation)
		return
	}
	c.failures[operation] = err
}

// SetEmptyResponses makes creation endpoints answer without a body.
func (c *ClientStub) SetEmptyResponses(empty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emptyResponses = empty
}

func (c *ClientStub) Calls(operation string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls[operation]
}

func (c *ClientStub) LastListBudgetsParams() ListBudgetsParams {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastBudgets
}

func (c *ClientStub) LastTransactionFilter() TransactionFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFilter
}

func (c *ClientStub) AddCategory(name string) Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addCategoryLocked(name)
}

func (c *ClientStub) addCategoryLocked(name string) Category {
	category := Category{Id: uuid.NewString(), Name: name, CreatedAt: now()}
	c.categories = append(c.categories, category)
	return category
}

// AddBudget stores b as-is, assigning an id when it has none.
func (c *ClientStub) AddBudget(b Budget) Budget {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b.Id == "" {
		b.Id = uuid.NewString()
	}
	c.budgets = append(c.budgets, b)
	return b
}

func (c *ClientStub) AddAlert(alertType AlertType, message string) Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	alert := Alert{Id: uuid.NewString(), Type: alertType, Message: message, CreatedAt: now()}
	c.alerts = append([]Alert{alert}, c.alerts...)
	return alert
}

func (c *ClientStub) Budgets() []Budget {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Budget, len(c.budgets))
	copy(result, c.budgets)
	return result
}

func (c *ClientStub) Transactions(budgetId string) []Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Transaction, len(c.transactions[budgetId]))
	copy(result, c.transactions[budgetId])
	return result
}

// enter records the call and applies failures and authorization. Callers hold c.mu.
func (c *ClientStub) enter(operation, accessToken string) error {
	c.calls[operation]++
	if err, ok := c.failures[operation]; ok {
		return err
	}
	if !c.authorize(accessToken) {
		return &api.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	}
	return nil
}

func notFound(message string) error {
	return &api.APIError{Status: http.StatusNotFound, Message: message}
}

func (c *ClientStub) findBudgetLocked(budgetId string) (int, error) {
	for i := range c.budgets {
		if c.budgets[i].Id == budgetId {
			return i, nil
		}
	}
	return -1, notFound("Budget not found")
}

func (c *ClientStub) ListCategories(ctx context.Context, accessToken string) ([]Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("ListCategories", accessToken); err != nil {
		return nil, err
	}
	result := make([]Category, len(c.categories))
	copy(result, c.categories)
	return result, nil
}

func (c *ClientStub) CreateCategory(ctx context.Context, accessToken string, name string) (*Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("CreateCategory", accessToken); err != nil {
		return nil, err
	}
	for _, existing := range c.categories {
		if existing.Name == name {
			return nil, &api.APIError{Status: http.StatusConflict, Message: "Category already exists"}
		}
	}
	category := c.addCategoryLocked(name)
	if c.emptyResponses {
		return nil, nil
	}
	return &category, nil
}

func (c *ClientStub) ListBudgets(ctx context.Context, accessToken string, params ListBudgetsParams) ([]Budget, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastBudgets = params
	if err := c.enter("ListBudgets", accessToken); err != nil {
		return nil, err
	}
	result := make([]Budget, 0, len(c.budgets))
	for _, b := range c.budgets {
		if params.PeriodType != "" && b.PeriodType != params.PeriodType {
			continue
		}
		if params.Status != "" && b.Status != params.Status {
			continue
		}
		// ISO dates compare lexically
		if params.StartDateFrom != "" && b.StartDate < params.StartDateFrom {
			continue
		}
		if params.StartDateTo != "" && b.StartDate > params.StartDateTo {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func (c *ClientStub) CreateBudget(ctx context.Context, accessToken string, req CreateBudgetRequest) (*Budget, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("CreateBudget", accessToken); err != nil {
		return nil, err
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return nil, &api.APIError{Status: http.StatusBadRequest, Message: "Validation failed", Details: []string{"startDate: invalid date"}}
	}
	end := start.AddDate(0, 1, -1)
	if req.PeriodType == PeriodWeekly {
		end = start.AddDate(0, 0, 6)
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	b := Budget{
		Id:         uuid.NewString(),
		Name:       req.Name,
		PeriodType: req.PeriodType,
		StartDate:  req.StartDate,
		EndDate:    end.Format(time.DateOnly),
		Currency:   currency,
		Status:     StatusActive,
		CreatedAt:  now(),
		UpdatedAt:  now(),
	}
	for _, limit := range req.CategoryLimits {
		b.CategoryLimits = append(b.CategoryLimits, c.limitLocked(limit.CategoryId, limit.LimitCents, limit.ColorHex))
		b.TotalLimitCents += limit.LimitCents
	}
	c.budgets = append(c.budgets, b)

	if c.emptyResponses {
		return nil, nil
	}
	return &b, nil
}

func (c *ClientStub) limitLocked(categoryId string, limitCents int64, colorHex string) CategoryLimit {
	limit := CategoryLimit{
		Id:             uuid.NewString(),
		CategoryId:     categoryId,
		LimitCents:     limitCents,
		ColorHex:       colorHex,
		RemainingCents: limitCents,
	}
	for _, category := range c.categories {
		if category.Id == categoryId {
			limit.CategoryName = category.Name
		}
	}
	return limit
}

func (c *ClientStub) UpsertCategoryLimit(ctx context.Context, accessToken string, budgetId, categoryId string, req UpsertCategoryLimitRequest) (*Budget, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("UpsertCategoryLimit", accessToken); err != nil {
		return nil, err
	}
	i, err := c.findBudgetLocked(budgetId)
	if err != nil {
		return nil, err
	}

	b := &c.budgets[i]
	replaced := false
	for j := range b.CategoryLimits {
		if b.CategoryLimits[j].CategoryId == categoryId {
			b.CategoryLimits[j].LimitCents = req.LimitCents
			b.CategoryLimits[j].ColorHex = req.ColorHex
			replaced = true
		}
	}
	if !replaced {
		b.CategoryLimits = append(b.CategoryLimits, c.limitLocked(categoryId, req.LimitCents, req.ColorHex))
	}
	b.TotalLimitCents = 0
	for _, limit := range b.CategoryLimits {
		b.TotalLimitCents += limit.LimitCents
	}
	b.UpdatedAt = now()

	if c.emptyResponses {
		return nil, nil
	}
	updated := *b
	return &updated, nil
}

func (c *ClientStub) ListTransactions(ctx context.Context, accessToken string, budgetId string, filter TransactionFilter) ([]Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFilter = filter
	if err := c.enter("ListTransactions", accessToken); err != nil {
		return nil, err
	}
	if _, err := c.findBudgetLocked(budgetId); err != nil {
		return nil, err
	}

	result := make([]Transaction, 0)
	for _, txn := range c.transactions[budgetId] {
		if filter.CategoryId != "" && (txn.CategoryId == nil || *txn.CategoryId != filter.CategoryId) {
			continue
		}
		if filter.MinDate != "" && txn.TransactionDate < filter.MinDate {
			continue
		}
		if filter.MaxDate != "" && txn.TransactionDate > filter.MaxDate {
			continue
		}
		result = append(result, txn)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TransactionDate > result[j].TransactionDate
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (c *ClientStub) CreateTransaction(ctx context.Context, accessToken string, req CreateTransactionRequest) (*Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("CreateTransaction", accessToken); err != nil {
		return nil, err
	}
	if _, err := c.findBudgetLocked(req.BudgetId); err != nil {
		return nil, err
	}

	txn := Transaction{
		Id:              uuid.NewString(),
		CategoryId:      req.CategoryId,
		Merchant:        req.Merchant,
		Description:     req.Description,
		AmountCents:     req.AmountCents,
		TransactionDate: req.TransactionDate,
		Source:          req.Source,
		CreatedAt:       now(),
		UpdatedAt:       now(),
	}
	c.transactions[req.BudgetId] = append(c.transactions[req.BudgetId], txn)

	if c.emptyResponses {
		return nil, nil
	}
	return &txn, nil
}

func (c *ClientStub) Summary(ctx context.Context, accessToken string, budgetId string) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("Summary", accessToken); err != nil {
		return Summary{}, err
	}
	i, err := c.findBudgetLocked(budgetId)
	if err != nil {
		return Summary{}, err
	}
	b := c.budgets[i]

	summary := Summary{
		BudgetId:        b.Id,
		BudgetName:      b.Name,
		PeriodType:      b.PeriodType,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		TotalLimitCents: b.TotalLimitCents,
	}
	spent := map[string]int64{}
	for _, txn := range c.transactions[budgetId] {
		if txn.AmountCents > 0 {
			summary.IncomeCents += txn.AmountCents
			continue
		}
		summary.ExpenseCents -= txn.AmountCents
		if txn.CategoryId != nil {
			spent[*txn.CategoryId] -= txn.AmountCents
		}
	}
	summary.NetCents = summary.IncomeCents - summary.ExpenseCents
	summary.TotalSpentCents = summary.ExpenseCents
	summary.TotalRemainingCents = b.TotalLimitCents - summary.ExpenseCents
	summary.UtilizationPct = utilization(summary.ExpenseCents, b.TotalLimitCents)

	for _, limit := range b.CategoryLimits {
		limitCents := limit.LimitCents
		remaining := limitCents - spent[limit.CategoryId]
		summary.Categories = append(summary.Categories, SummaryCategory{
			CategoryId:     limit.CategoryId,
			CategoryName:   limit.CategoryName,
			ColorHex:       limit.ColorHex,
			LimitCents:     &limitCents,
			SpentCents:     spent[limit.CategoryId],
			RemainingCents: &remaining,
			UtilizationPct: utilization(spent[limit.CategoryId], limitCents),
		})
	}
	return summary, nil
}

func utilization(spent, limit int64) *float64 {
	if limit <= 0 {
		return nil
	}
	pct := float64(spent) * 100 / float64(limit)
	return &pct
}

func (c *ClientStub) ListAlerts(ctx context.Context, accessToken string, unreadOnly bool, limit int) ([]Alert, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("ListAlerts", accessToken); err != nil {
		return nil, err
	}
	result := make([]Alert, 0, len(c.alerts))
	for _, alert := range c.alerts {
		if unreadOnly && !alert.Unread() {
			continue
		}
		result = append(result, alert)
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (c *ClientStub) MarkAlertRead(ctx context.Context, accessToken string, alertId string) (*Alert, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter("MarkAlertRead", accessToken); err != nil {
		return nil, err
	}
	for i := range c.alerts {
		if c.alerts[i].Id == alertId {
			readAt := now()
			c.alerts[i].ReadAt = &readAt
			if c.emptyResponses {
				return nil, nil
			}
			alert := c.alerts[i]
			return &alert, nil
		}
	}
	return nil, notFound("Alert not found")
}
