package budget

import (
	"context"
	"testing"

	"github.com/klokku/calmcash/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodType(t *testing.T) {
	tests := []struct {
		in      string
		want    PeriodType
		wantErr bool
	}{
		{in: "MONTHLY", want: PeriodMonthly},
		{in: "weekly", want: PeriodWeekly},
		{in: " Monthly ", want: PeriodMonthly},
		{in: "YEARLY", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriodType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTransactionSource(t *testing.T) {
	got, err := ParseTransactionSource("plaid")
	require.NoError(t, err)
	assert.Equal(t, SourcePlaid, got)

	_, err = ParseTransactionSource("cash")
	assert.Error(t, err)
}

func TestClientStub_Summary(t *testing.T) {
	// given
	ctx := context.Background()
	stub := NewClientStub()
	groceries := stub.AddCategory("Groceries")
	rent := stub.AddCategory("Rent")
	created, err := stub.CreateBudget(ctx, "token", CreateBudgetRequest{
		Name:       "October",
		PeriodType: PeriodMonthly,
		StartDate:  "2026-10-01",
		CategoryLimits: []CategoryLimitInput{
			{CategoryId: groceries.Id, LimitCents: 6000, ColorHex: "#F25F5C"},
			{CategoryId: rent.Id, LimitCents: 4000, ColorHex: "#3A86FF"},
		},
	})
	require.NoError(t, err)
	_, err = stub.CreateTransaction(ctx, "token", CreateTransactionRequest{
		BudgetId: created.Id, CategoryId: &groceries.Id, Merchant: "Market", AmountCents: -3000, TransactionDate: "2026-10-03", Source: SourceManual,
	})
	require.NoError(t, err)
	_, err = stub.CreateTransaction(ctx, "token", CreateTransactionRequest{
		BudgetId: created.Id, Merchant: "Employer", AmountCents: 50000, TransactionDate: "2026-10-04", Source: SourceManual,
	})
	require.NoError(t, err)

	// when
	summary, err := stub.Summary(ctx, "token", created.Id)

	// then
	require.NoError(t, err)
	assert.Equal(t, "2026-10-31", created.EndDate)
	assert.Equal(t, int64(10000), summary.TotalLimitCents)
	assert.Equal(t, int64(3000), summary.ExpenseCents)
	assert.Equal(t, int64(50000), summary.IncomeCents)
	assert.Equal(t, int64(47000), summary.NetCents)
	require.Len(t, summary.Categories, 2)
	assert.Equal(t, "Groceries", summary.Categories[0].CategoryName)
	assert.Equal(t, 50.0, *summary.Categories[0].UtilizationPct)
}

func TestClientStub_RejectsUnauthorizedTokens(t *testing.T) {
	stub := NewClientStub()
	stub.SetAuthorizer(func(token string) bool { return token == "good" })

	_, err := stub.ListCategories(context.Background(), "bad")

	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, 1, stub.Calls("ListCategories"))
}
