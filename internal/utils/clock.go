package utils

import (
	"fmt"
	"time"
)

const (
	MonthLayout = "2006-01"
	DateLayout  = "2006-01-02"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

type MockClock struct {
	FixedNow time.Time
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}

// CurrentMonth returns the clock's month formatted as YYYY-MM.
func CurrentMonth(c Clock) string {
	return c.Now().Format(MonthLayout)
}

// CurrentDate returns the clock's day formatted as YYYY-MM-DD.
func CurrentDate(c Clock) string {
	return c.Now().Format(DateLayout)
}

func parseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", month)
	}
	return t, nil
}

// FirstDayOfMonth returns the YYYY-MM-DD date of the first day of a YYYY-MM month.
func FirstDayOfMonth(month string) (string, error) {
	t, err := parseMonth(month)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// LastDayOfMonth returns the YYYY-MM-DD date of the last day of a YYYY-MM month.
func LastDayOfMonth(month string) (string, error) {
	t, err := parseMonth(month)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 1, -1).Format(DateLayout), nil
}

// MonthLabel renders a YYYY-MM month as e.g. "October 2026".
func MonthLabel(month string) (string, error) {
	t, err := parseMonth(month)
	if err != nil {
		return "", err
	}
	return t.Format("January 2006"), nil
}
