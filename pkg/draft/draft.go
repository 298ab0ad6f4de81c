package draft

import (
	"fmt"

	"github.com/klokku/calmcash/internal/utils"
	"github.com/klokku/calmcash/pkg/budget"
)

// Draft is a budget being composed. It is not safe for concurrent use.
type Draft struct {
	Name       string
	PeriodType budget.PeriodType
	StartDate  string
	TotalInput string

	rows   []Row
	nextId IdGenerator
}

// NewDraft opens a monthly draft for month (YYYY-MM) seeded with one row for
// the first known category.
func NewDraft(month string, categories []budget.Category, nextId IdGenerator) (*Draft, error) {
	label, err := utils.MonthLabel(month)
	if err != nil {
		return nil, err
	}
	start, err := utils.FirstDayOfMonth(month)
	if err != nil {
		return nil, err
	}
	if nextId == nil {
		nextId = UUIDs()
	}

	seed := ""
	if len(categories) > 0 {
		seed = categories[0].Id
	}
	return &Draft{
		Name:       fmt.Sprintf("Budget for %s", label),
		PeriodType: budget.PeriodMonthly,
		StartDate:  start,
		rows:       AddRow(nil, seed, nextId),
		nextId:     nextId,
	}, nil
}

func (d *Draft) Rows() []Row {
	out := make([]Row, len(d.rows))
	copy(out, d.rows)
	return out
}

// AddRow appends a row and returns it.
func (d *Draft) AddRow(seedCategoryId string) Row {
	d.rows = AddRow(d.rows, seedCategoryId, d.nextId)
	return d.rows[len(d.rows)-1]
}

func (d *Draft) RemoveRow(rowId string) {
	d.rows = RemoveRow(d.rows, rowId)
}

func (d *Draft) UpdateRow(rowId string, patch RowPatch) {
	d.rows = UpdateRow(d.rows, rowId, patch)
}

func (d *Draft) Submit() (Submission, error) {
	return ValidateAndBuildSubmission(d.Name, d.PeriodType, d.StartDate, d.TotalInput, d.rows)
}
