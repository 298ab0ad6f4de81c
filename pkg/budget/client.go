package budget

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/klokku/calmcash/pkg/api"
)

type Client interface {
	// GET /api/categories
	ListCategories(ctx context.Context, accessToken string) ([]Category, error)
	// POST /api/categories
	CreateCategory(ctx context.Context, accessToken string, name string) (*Category, error)
	// GET /api/budgets
	ListBudgets(ctx context.Context, accessToken string, params ListBudgetsParams) ([]Budget, error)
	// POST /api/budgets
	CreateBudget(ctx context.Context, accessToken string, req CreateBudgetRequest) (*Budget, error)
	// PUT /api/budgets/{budgetId}/categories/{categoryId}
	UpsertCategoryLimit(ctx context.Context, accessToken string, budgetId, categoryId string, req UpsertCategoryLimitRequest) (*Budget, error)
	// GET /api/budgets/{budgetId}/transactions
	ListTransactions(ctx context.Context, accessToken string, budgetId string, filter TransactionFilter) ([]Transaction, error)
	// POST /api/transactions
	CreateTransaction(ctx context.Context, accessToken string, req CreateTransactionRequest) (*Transaction, error)
	// GET /api/budgets/{budgetId}/summary
	Summary(ctx context.Context, accessToken string, budgetId string) (Summary, error)
	// GET /api/alerts
	ListAlerts(ctx context.Context, accessToken string, unreadOnly bool, limit int) ([]Alert, error)
	// PATCH /api/alerts/{alertId}/read
	MarkAlertRead(ctx context.Context, accessToken string, alertId string) (*Alert, error)
}

type ClientImpl struct {
	api *api.Client
}

func NewClient(baseURL string, httpClient *http.Client) *ClientImpl {
	return &ClientImpl{
		api: api.NewClient(baseURL, httpClient),
	}
}

func budgetPath(budgetId string, rest ...string) string {
	p := "/api/budgets/" + url.PathEscape(budgetId)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func (c *ClientImpl) ListCategories(ctx context.Context, accessToken string) ([]Category, error) {
	var categories []Category
	if err := c.api.JSON(ctx, api.Request{Path: "/api/categories", AccessToken: accessToken}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *ClientImpl) CreateCategory(ctx context.Context, accessToken string, name string) (*Category, error) {
	var category Category
	found, err := c.api.MaybeJSON(ctx, api.Request{
		Method:      http.MethodPost,
		Path:        "/api/categories",
		Body:        map[string]string{"name": name},
		AccessToken: accessToken,
	}, &category)
	if err != nil || !found {
		return nil, err
	}
	return &category, nil
}

func (c *ClientImpl) ListBudgets(ctx context.Context, accessToken string, params ListBudgetsParams) ([]Budget, error) {
	query := url.Values{}
	if params.PeriodType != "" {
		query.Set("periodType", string(params.PeriodType))
	}
	if params.Status != "" {
		query.Set("status", string(params.Status))
	}
	if params.StartDateFrom != "" {
		query.Set("startDateFrom", params.StartDateFrom)
	}
	if params.StartDateTo != "" {
		query.Set("startDateTo", params.StartDateTo)
	}

	var budgets []Budget
	if err := c.api.JSON(ctx, api.Request{Path: "/api/budgets", Query: query, AccessToken: accessToken}, &budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

func (c *ClientImpl) CreateBudget(ctx context.Context, accessToken string, req CreateBudgetRequest) (*Budget, error) {
	var created Budget
	found, err := c.api.MaybeJSON(ctx, api.Request{
		Method:      http.MethodPost,
		Path:        "/api/budgets",
		Body:        req,
		AccessToken: accessToken,
	}, &created)
	if err != nil || !found {
		return nil, err
	}
	return &created, nil
}

func (c *ClientImpl) UpsertCategoryLimit(ctx context.Context, accessToken string, budgetId, categoryId string, req UpsertCategoryLimitRequest) (*Budget, error) {
	var updated Budget
	found, err := c.api.MaybeJSON(ctx, api.Request{
		Method:      http.MethodPut,
		Path:        budgetPath(budgetId, "categories", categoryId),
		Body:        req,
		AccessToken: accessToken,
	}, &updated)
	if err != nil || !found {
		return nil, err
	}
	return &updated, nil
}

func (c *ClientImpl) ListTransactions(ctx context.Context, accessToken string, budgetId string, filter TransactionFilter) ([]Transaction, error) {
	query := url.Values{}
	if filter.CategoryId != "" {
		query.Set("categoryId", filter.CategoryId)
	}
	if filter.MinDate != "" {
		query.Set("minDate", filter.MinDate)
	}
	if filter.MaxDate != "" {
		query.Set("maxDate", filter.MaxDate)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var transactions []Transaction
	err := c.api.JSON(ctx, api.Request{
		Path:        budgetPath(budgetId, "transactions"),
		Query:       query,
		AccessToken: accessToken,
	}, &transactions)
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (c *ClientImpl) CreateTransaction(ctx context.Context, accessToken string, req CreateTransactionRequest) (*Transaction, error) {
	var created Transaction
	found, err := c.api.MaybeJSON(ctx, api.Request{
		Method:      http.MethodPost,
		Path:        "/api/transactions",
		Body:        req,
		AccessToken: accessToken,
	}, &created)
	if err != nil || !found {
		return nil, err
	}
	return &created, nil
}

func (c *ClientImpl) Summary(ctx context.Context, accessToken string, budgetId string) (Summary, error) {
	var summary Summary
	if err := c.api.JSON(ctx, api.Request{Path: budgetPath(budgetId, "summary"), AccessToken: accessToken}, &summary); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func (c *ClientImpl) ListAlerts(ctx context.Context, accessToken string, unreadOnly bool, limit int) ([]Alert, error) {
	query := url.Values{}
	query.Set("unreadOnly", strconv.FormatBool(unreadOnly))
	query.Set("limit", strconv.Itoa(limit))

	var alerts []Alert
	if err := c.api.JSON(ctx, api.Request{Path: "/api/alerts", Query: query, AccessToken: accessToken}, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (c *ClientImpl) MarkAlertRead(ctx context.Context, accessToken string, alertId string) (*Alert, error) {
	var alert Alert
	found, err := c.api.MaybeJSON(ctx, api.Request{
		Method:      http.MethodPatch,
		Path:        "/api/alerts/" + url.PathEscape(alertId) + "/read",
		AccessToken: accessToken,
	}, &alert)
	if err != nil || !found {
		return nil, err
	}
	return &alert, nil
}
