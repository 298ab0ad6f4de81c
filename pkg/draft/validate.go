package draft

import (
	"strings"

	"github.com/klokku/calmcash/pkg/budget"
)

type Kind int

const (
	InvalidTotal Kind = iota + 1
	MissingRows
	DuplicateCategory
	SumMismatch
)

func (k Kind) String() string {
	switch k {
	case InvalidTotal:
		return "InvalidTotal"
	case MissingRows:
		return "MissingRows"
	case DuplicateCategory:
		return "DuplicateCategory"
	case SumMismatch:
		return "SumMismatch"
	}
	return "Unknown"
}

var messages = map[Kind]string{
	InvalidTotal:      "Provide budget name, start date, and a positive total budget amount.",
	MissingRows:       "Add at least one category limit with a positive amount.",
	DuplicateCategory: "Each category can only be added once.",
	SumMismatch:       "Category limits must add up exactly to the total budget amount.",
}

type ValidationError struct {
	Kind Kind
}

func (e *ValidationError) Error() string {
	return messages[e.Kind]
}

// Is matches any *ValidationError of the same Kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// Submission is a draft that passed validation.
type Submission struct {
	Name            string
	PeriodType      budget.PeriodType
	StartDate       string
	TotalLimitCents int64
	CategoryLimits  []budget.CategoryLimitInput
}

// Request converts s into the budget service payload.
func (s Submission) Request() budget.CreateBudgetRequest {
	return budget.CreateBudgetRequest{
		Name:           s.Name,
		PeriodType:     s.PeriodType,
		StartDate:      s.StartDate,
		Currency:       "USD",
		CategoryLimits: s.CategoryLimits,
	}
}

// ValidateAndBuildSubmission checks the draft and returns the payload to submit.
// Rows without a category are ignored. Checks run in order: total, rows,
// duplicates, exact sum.
func ValidateAndBuildSubmission(name string, periodType budget.PeriodType, startDate, totalInput string, rows []Row) (Submission, error) {
	name = strings.TrimSpace(name)
	total, ok := DollarsToCents(totalInput)
	if name == "" || strings.TrimSpace(startDate) == "" || !ok || total <= 0 {
		return Submission{}, &ValidationError{Kind: InvalidTotal}
	}

	limits := make([]budget.CategoryLimitInput, 0, len(rows))
	for _, row := range rows {
		categoryId := strings.TrimSpace(row.CategoryId)
		if categoryId == "" {
			continue
		}
		cents, ok := DollarsToCents(row.LimitInput)
		if !ok || cents <= 0 {
			return Submission{}, &ValidationError{Kind: MissingRows}
		}
		limits = append(limits, budget.CategoryLimitInput{
			CategoryId: categoryId,
			LimitCents: cents,
			ColorHex:   row.ColorHex,
		})
	}
	if len(limits) == 0 {
		return Submission{}, &ValidationError{Kind: MissingRows}
	}

	seen := make(map[string]struct{}, len(limits))
	for _, limit := range limits {
		if _, dup := seen[limit.CategoryId]; dup {
			return Submission{}, &ValidationError{Kind: DuplicateCategory}
		}
		seen[limit.CategoryId] = struct{}{}
	}

	// Limits and total are positive, so total-sum never overflows.
	var sum int64
	for _, limit := range limits {
		if limit.LimitCents > total-sum {
			return Submission{}, &ValidationError{Kind: SumMismatch}
		}
		sum += limit.LimitCents
	}
	if sum != total {
		return Submission{}, &ValidationError{Kind: SumMismatch}
	}

	return Submission{
		Name:            name,
		PeriodType:      periodType,
		StartDate:       startDate,
		TotalLimitCents: total,
		CategoryLimits:  limits,
	}, nil
}
