package view

import (
	"time"

	"github.com/chepyr/go-task-board/internal/models"
)

// Due-date operations accepted in FilterBy.ByDueDateOp.
const (
	DueToday       = "today"
	DueTomorrow    = "tomorrow"
	DueYesterday   = "yesterday"
	DueThisWeek    = "this week"
	DueLastWeek    = "last week"
	DueNextWeek    = "next week"
	DueThisMonth   = "this month"
	DueLastMonth   = "last month"
	DueNextMonth   = "next month"
	DueOverdue     = "overdue"
	DueDoneOnTime  = "done on time"
	DueDoneOverdue = "done overdue"
)

// DueDateOps lists every supported due-date operation.
var DueDateOps = []string{
	DueToday, DueTomorrow, DueYesterday,
	DueThisWeek, DueLastWeek, DueNextWeek,
	DueThisMonth, DueLastMonth, DueNextMonth,
	DueOverdue, DueDoneOnTime, DueDoneOverdue,
}

// span is a half-open time interval [from, to).
type span struct {
	from, to time.Time
}

func (s span) contains(t time.Time) bool {
	return !t.Before(s.from) && t.Before(s.to)
}

// dueDates holds the calendar ranges relative to one reference instant.
// Weeks start on Monday.
type dueDates struct {
	loc   *time.Location
	today time.Time
	spans map[string]span
}

func newDueDates(now time.Time) dueDates {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	day := func(n int) time.Time { return today.AddDate(0, 0, n) }

	offset := (int(today.Weekday()) + 6) % 7
	week := day(-offset)
	month := time.Date(y, m, 1, 0, 0, 0, 0, loc)

	return dueDates{
		loc:   loc,
		today: today,
		spans: map[string]span{
			DueToday:     {day(0), day(1)},
			DueTomorrow:  {day(1), day(2)},
			DueYesterday: {day(-1), day(0)},
			DueThisWeek:  {week, week.AddDate(0, 0, 7)},
			DueLastWeek:  {week.AddDate(0, 0, -7), week},
			DueNextWeek:  {week.AddDate(0, 0, 7), week.AddDate(0, 0, 14)},
			DueThisMonth: {month, month.AddDate(0, 1, 0)},
			DueLastMonth: {month.AddDate(0, -1, 0), month},
			DueNextMonth: {month.AddDate(0, 1, 0), month.AddDate(0, 2, 0)},
		},
	}
}

// match reports whether the task satisfies a single due-date operation.
// Tasks without a due date and unknown operations never match.
func (d dueDates) match(op string, t *models.Task) bool {
	if t.DueDate == nil {
		return false
	}
	due := t.DueDate.In(d.loc)
	if s, ok := d.spans[op]; ok {
		return s.contains(due)
	}
	switch op {
	case DueOverdue:
		return due.Before(d.today) && !t.IsDone()
	case DueDoneOnTime:
		return t.IsDone() && t.DoneAt != nil && !t.DoneAt.After(due)
	case DueDoneOverdue:
		return t.IsDone() && t.DoneAt != nil && t.DoneAt.After(due)
	}
	return false
}
