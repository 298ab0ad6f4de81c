package budget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/klokku/calmcash/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "access-1"

var _ Client = (*ClientImpl)(nil)

type recordedRequest struct {
	method string
	path   string
	query  url.Values
	body   map[string]any
}

type fakeBudgetServer struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeBudgetServer) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func setupBudgetServer(t *testing.T) (*ClientImpl, *fakeBudgetServer) {
	fake := &fakeBudgetServer{}
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+testToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			rec := recordedRequest{method: r.Method, path: r.URL.EscapedPath(), query: r.URL.Query()}
			json.NewDecoder(r.Body).Decode(&rec.body)
			fake.mu.Lock()
			fake.requests = append(fake.requests, rec)
			fake.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	r.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []Category{{Id: "c1", Name: "Groceries"}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []Budget{{Id: "b1", Name: "October", PeriodType: PeriodMonthly, TotalLimitCents: 10000}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, Budget{Id: "b2", Name: "Created", TotalLimitCents: 10000})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/budgets/{budgetId}/categories/{categoryId}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Budget{Id: mux.Vars(r)["budgetId"]})
	}).Methods(http.MethodPut)
	r.HandleFunc("/api/budgets/{budgetId}/transactions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []Transaction{{Id: "t1", Merchant: "Market", AmountCents: -1250}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/budgets/{budgetId}/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"budgetId":"b1","totalLimitCents":10000,"expenseCents":1250,"utilizationPct":12.5,
			"categories":[{"categoryId":"c1","categoryName":"Groceries","limitCents":null,"spentCents":1250}]}`))
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"a1","type":"BUDGET_80","message":"80% used","readAt":null},
			{"id":"a2","type":"SYSTEM","message":"hello","readAt":"2026-10-01T10:00:00Z"}]`))
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/alerts/{alertId}/read", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"a1","type":"BUDGET_80","readAt":"2026-10-02T10:00:00Z"}`))
	}).Methods(http.MethodPatch)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return NewClient(server.URL, server.Client()), fake
}

func TestClientImpl(t *testing.T) {
	ctx := context.Background()

	t.Run("should list categories", func(t *testing.T) {
		client, _ := setupBudgetServer(t)

		categories, err := client.ListCategories(ctx, testToken)

		require.NoError(t, err)
		assert.Equal(t, []Category{{Id: "c1", Name: "Groceries"}}, categories)
	})

	t.Run("should return nil category for empty create response", func(t *testing.T) {
		client, fake := setupBudgetServer(t)

		category, err := client.CreateCategory(ctx, testToken, "Rent")

		require.NoError(t, err)
		assert.Nil(t, category)
		assert.Equal(t, "Rent", fake.last().body["name"])
	})

	t.Run("should pass budget filters as query parameters", func(t *testing.T) {
		client, fake := setupBudgetServer(t)

		budgets, err := client.ListBudgets(ctx, testToken, ListBudgetsParams{
			PeriodType:    PeriodMonthly,
			Status:        StatusActive,
			StartDateFrom: "2026-10-01",
			StartDateTo:   "2026-10-31",
		})

		require.NoError(t, err)
		assert.Len(t, budgets, 1)
		query := fake.last().query
		assert.Equal(t, "MONTHLY", query.Get("periodType"))
		assert.Equal(t, "ACTIVE", query.Get("status"))
		assert.Equal(t, "2026-10-01", query.Get("startDateFrom"))
		assert.Equal(t, "2026-10-31", query.Get("startDateTo"))
	})

	t.Run("should omit empty budget filters", func(t *testing.T) {
		client, fake := setupBudgetServer(t)

		_, err := client.ListBudgets(ctx, testToken, ListBudgetsParams{})

		require.NoError(t, err)
		assert.Empty(t, fake.last().query)
	})

	t.Run("should create budget with category limits", func(t *testing.T) {
		client, fake := setupBudgetServer(t)

		created, err := client.CreateBudget(ctx, testToken, CreateBudgetRequest{
			Name:       "October",
			PeriodType: PeriodMonthly,
			StartDate:  "2026-10-01",
			Currency:   "USD",
			CategoryLimits: []CategoryLimitInput{
				{CategoryId: "c1", LimitCents: 6000, ColorHex: "#F25F5C"},
				{CategoryId: "c2", LimitCents: 4000, ColorHex: "#3A86FF"},
			},
		})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "b2", created.Id)
		body := fake.last().body
		assert.Equal(t, "MONTHLY", body["periodType"])
		assert.Equal(t, "USD", body["currency"])
		assert.Len(t, body["categoryLimits"], 2)
	})

	t.Run("should upsert category limit with escaped ids", func(t *testing.T) {
		client, fake := setupBudgetServer(t)

		updated, err := client.UpsertCategoryLimit(ctx, testToken, "b1", "c 1", UpsertCategoryLimitRequest{LimitCents: 2500})

		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "b1", updated.Id)
		req := fake.last()
		assert.Equal(t, http.MethodPut, req.method)
		assert.Equal(t, "/api/budgets/b1/categories/c%201", req.path)
		assert.Equal(t, float64(2500), req.body["limitCents"])
	})

	t.Run("should list budget transactions with limit", func(t *testing.T) {
		client, fake := setupBudgetServer(t)

		txns, err := client.ListTransactions(ctx, testToken, "b1", TransactionFilter{Limit: 100})

		require.NoError(t, err)
		assert.Equal(t, int64(-1250), txns[0].AmountCents)
		assert.Equal(t, url.Values{"limit": {"100"}}, fake.last().query)
	})

	t.Run("should create transaction with null optional fields", func(t *testing.T) {
		client, fake := setupBudgetServer(t)

		txn, err := client.CreateTransaction(ctx, testToken, CreateTransactionRequest{
			BudgetId:        "b1",
			Merchant:        "Market",
			AmountCents:     -1250,
			TransactionDate: "2026-10-05",
			Source:          SourceManual,
		})

		require.NoError(t, err)
		assert.Nil(t, txn)
		body := fake.last().body
		assert.Contains(t, body, "categoryId")
		assert.Nil(t, body["categoryId"])
		assert.Nil(t, body["description"])
	})

	t.Run("should decode summary with nullable fields", func(t *testing.T) {
		client, _ := setupBudgetServer(t)

		summary, err := client.Summary(ctx, testToken, "b1")

		require.NoError(t, err)
		require.NotNil(t, summary.UtilizationPct)
		assert.Equal(t, 12.5, *summary.UtilizationPct)
		assert.Nil(t, summary.Categories[0].LimitCents)
	})

	t.Run("should list alerts", func(t *testing.T) {
		client, fake := setupBudgetServer(t)

		alerts, err := client.ListAlerts(ctx, testToken, false, 10)

		require.NoError(t, err)
		assert.Equal(t, 1, UnreadCount(alerts))
		assert.Equal(t, url.Values{"unreadOnly": {"false"}, "limit": {"10"}}, fake.last().query)
	})

	t.Run("should mark alert read", func(t *testing.T) {
		client, fake := setupBudgetServer(t)

		alert, err := client.MarkAlertRead(ctx, testToken, "a1")

		require.NoError(t, err)
		require.NotNil(t, alert)
		assert.False(t, alert.Unread())
		assert.Equal(t, http.MethodPatch, fake.last().method)
	})

	t.Run("should surface 401 for stale token", func(t *testing.T) {
		client, _ := setupBudgetServer(t)

		_, err := client.ListCategories(ctx, "stale")

		assert.True(t, api.IsUnauthorized(err))
	})
}
