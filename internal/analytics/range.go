package analytics

import (
	"fmt"
	"time"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
)

// Quick filter names accepted by the dashboard.
const (
	FilterToday      = "today"
	FilterThisWeek   = "this_week"
	FilterThisMonth  = "this_month"
	FilterThisYear   = "this_year"
	FilterLast7Days  = "last_7_days"
	FilterLast30Days = "last_30_days"
	FilterLast90Days = "last_90_days"
	FilterAll        = "all"
	FilterCustom     = "custom"
)

const maxCustomRange = 10 * 366

// Range is an inclusive window of calendar days. All ignores From and To.
type Range struct {
	Filter string
	From   models.Date
	To     models.Date
	All    bool
}

// ResolveQuickFilter turns a named filter into concrete days relative to today.
// Weeks start on Sunday; last_N_days includes today.
func ResolveQuickFilter(name string, today models.Date) (Range, error) {
	r := Range{Filter: name, To: today}
	switch name {
	case FilterToday:
		r.From = today
	case FilterThisWeek:
		r.From = today.AddDays(-int(today.Weekday()))
		r.To = r.From.AddDays(6)
	case FilterThisMonth:
		r.From = models.NewDate(today.Year, today.Month, 1)
		r.To = r.From.AddMonths(1).AddDays(-1)
	case FilterThisYear:
		r.From = models.NewDate(today.Year, time.January, 1)
		r.To = models.NewDate(today.Year, time.December, 31)
	case FilterLast7Days:
		r.From = today.AddDays(-6)
	case FilterLast30Days:
		r.From = today.AddDays(-29)
	case FilterLast90Days:
		r.From = today.AddDays(-89)
	case FilterAll:
		return Range{Filter: FilterAll, All: true}, nil
	default:
		return Range{}, common.NewValidationError("filter", fmt.Sprintf("unknown quick filter %q", name))
	}
	return r, nil
}

// ResolveRange picks a custom from/to window when both are given, otherwise
// the named filter, defaulting to the current month.
func ResolveRange(filter, from, to string, today models.Date) (Range, error) {
	if from == "" && to == "" {
		if filter == "" {
			filter = FilterThisMonth
		}
		return ResolveQuickFilter(filter, today)
	}
	if from == "" || to == "" {
		return Range{}, common.NewValidationError("from", "from and to must be given together")
	}

	start, err := models.ParseDate(from)
	if err != nil {
		return Range{}, common.NewValidationError("from", "must be a YYYY-MM-DD date")
	}
	end, err := models.ParseDate(to)
	if err != nil {
		return Range{}, common.NewValidationError("to", "must be a YYYY-MM-DD date")
	}
	if end.Before(start) {
		return Range{}, common.NewValidationError("to", "must not be before from")
	}
	if start.AddDays(maxCustomRange).Before(end) {
		return Range{}, common.NewValidationError("to", "range is too large")
	}
	return Range{Filter: FilterCustom, From: start, To: end}, nil
}

// Contains reports whether d falls inside the window, compared as plain dates.
func (r Range) Contains(d models.Date) bool {
	if r.All {
		return true
	}
	return !d.Before(r.From) && !d.After(r.To)
}

// ContainsTime compares the calendar day of t in loc.
func (r Range) ContainsTime(t time.Time, loc *time.Location) bool {
	return r.Contains(models.DateOf(t.In(loc)))
}

func (r Range) SingleDay() bool {
	return !r.All && r.From.Equal(r.To)
}

// Bounds is the half-open instant window [From 00:00, To+1 00:00) in loc, or nil bounds for All.
func (r Range) Bounds(loc *time.Location) (start, end *time.Time) {
	if r.All {
		return nil, nil
	}
	s := r.From.Time(loc)
	e := r.To.AddDays(1).Time(loc)
	return &s, &e
}

// Days returns date bounds for date-only columns, nil for All.
func (r Range) Days() (from, to *models.Date) {
	if r.All {
		return nil, nil
	}
	f, t := r.From, r.To
	return &f, &t
}

// Key identifies the resolved window in cache keys.
func (r Range) Key() string {
	if r.All {
		return FilterAll
	}
	return fmt.Sprintf("%s:%s:%s", r.Filter, r.From, r.To)
}
