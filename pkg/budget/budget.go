package budget

import (
	"fmt"
	"strings"
)

type PeriodType string

const (
	PeriodWeekly  PeriodType = "WEEKLY"
	PeriodMonthly PeriodType = "MONTHLY"
)

func ParsePeriodType(s string) (PeriodType, error) {
	switch p := PeriodType(strings.ToUpper(strings.TrimSpace(s))); p {
	case PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", fmt.Errorf("unknown period type %q, expected WEEKLY or MONTHLY", s)
}

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusArchived Status = "ARCHIVED"
)

type TransactionSource string

const (
	SourceManual TransactionSource = "MANUAL"
	SourcePlaid  TransactionSource = "PLAID"
	SourceImport TransactionSource = "IMPORT"
)

func ParseTransactionSource(s string) (TransactionSource, error) {
	switch src := TransactionSource(strings.ToUpper(strings.TrimSpace(s))); src {
	case SourceManual, SourcePlaid, SourceImport:
		return src, nil
	}
	return "", fmt.Errorf("unknown transaction source %q", s)
}

type AlertType string

const (
	AlertBudget80  AlertType = "BUDGET_80"
	AlertBudget100 AlertType = "BUDGET_100"
	AlertSystem    AlertType = "SYSTEM"
)

type Category struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

type CategoryLimit struct {
	Id             string   `json:"id"`
	CategoryId     string   `json:"categoryId"`
	CategoryName   string   `json:"categoryName"`
	LimitCents     int64    `json:"limitCents"`
	ColorHex       string   `json:"colorHex"`
	SpentCents     int64    `json:"spentCents"`
	RemainingCents int64    `json:"remainingCents"`
	UtilizationPct *float64 `json:"utilizationPct"`
}

// Budget is owned by the budget service and read-only on the client.
type Budget struct {
	Id              string          `json:"id"`
	Name            string          `json:"name"`
	PeriodType      PeriodType      `json:"periodType"`
	StartDate       string          `json:"startDate"`
	EndDate         string          `json:"endDate"`
	Currency        string          `json:"currency"`
	Status          Status          `json:"status"`
	TotalLimitCents int64           `json:"totalLimitCents"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
	CategoryLimits  []CategoryLimit `json:"categoryLimits"`
}

// Transaction amounts are signed: expenses are negative, income positive.
type Transaction struct {
	Id              string            `json:"id"`
	CategoryId      *string           `json:"categoryId"`
	Merchant        string            `json:"merchant"`
	Description     *string           `json:"description"`
	AmountCents     int64             `json:"amountCents"`
	TransactionDate string            `json:"transactionDate"`
	Source          TransactionSource `json:"source"`
	CreatedAt       string            `json:"createdAt"`
	UpdatedAt       string            `json:"updatedAt"`
}

type SummaryCategory struct {
	CategoryId     string   `json:"categoryId"`
	CategoryName   string   `json:"categoryName"`
	ColorHex       string   `json:"colorHex"`
	LimitCents     *int64   `json:"limitCents"`
	SpentCents     int64    `json:"spentCents"`
	RemainingCents *int64   `json:"remainingCents"`
	UtilizationPct *float64 `json:"utilizationPct"`
}

type Summary struct {
	BudgetId            string            `json:"budgetId"`
	BudgetName          string            `json:"budgetName"`
	PeriodType          PeriodType        `json:"periodType"`
	StartDate           string            `json:"startDate"`
	EndDate             string            `json:"endDate"`
	TotalLimitCents     int64             `json:"totalLimitCents"`
	TotalSpentCents     int64             `json:"totalSpentCents"`
	TotalRemainingCents int64             `json:"totalRemainingCents"`
	UtilizationPct      *float64          `json:"utilizationPct"`
	IncomeCents         int64             `json:"incomeCents"`
	ExpenseCents        int64             `json:"expenseCents"`
	NetCents            int64             `json:"netCents"`
	Categories          []SummaryCategory `json:"categories"`
}

type Alert struct {
	Id        string    `json:"id"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	CreatedAt string    `json:"createdAt"`
	ReadAt    *string   `json:"readAt"`
}

func (a Alert) Unread() bool {
	return a.ReadAt == nil || *a.ReadAt == ""
}

// UnreadCount counts alerts that have not been marked read.
func UnreadCount(alerts []Alert) int {
	n := 0
	for _, a := range alerts {
		if a.Unread() {
			n++
		}
	}
	return n
}

type ListBudgetsParams struct {
	PeriodType    PeriodType
	Status        Status
	StartDateFrom string
	StartDateTo   string
}

type TransactionFilter struct {
	CategoryId string
	MinDate    string
	MaxDate    string
	Limit      int
}

type CategoryLimitInput struct {
	CategoryId string `json:"categoryId"`
	LimitCents int64  `json:"limitCents"`
	ColorHex   string `json:"colorHex,omitempty"`
}

type CreateBudgetRequest struct {
	Name           string               `json:"name"`
	PeriodType     PeriodType           `json:"periodType"`
	StartDate      string               `json:"startDate"`
	Currency       string               `json:"currency,omitempty"`
	CategoryLimits []CategoryLimitInput `json:"categoryLimits"`
}

type UpsertCategoryLimitRequest struct {
	LimitCents int64  `json:"limitCents"`
	ColorHex   string `json:"colorHex,omitempty"`
}

type CreateTransactionRequest struct {
	BudgetId        string            `json:"budgetId"`
	CategoryId      *string           `json:"categoryId"`
	Merchant        string            `json:"merchant"`
	Description     *string           `json:"description"`
	AmountCents     int64             `json:"amountCents"`
	TransactionDate string            `json:"transactionDate"`
	Source          TransactionSource `json:"source"`
}
