// Package view derives filtered and sorted read models of a board.
package view

import (
	"slices"
	"strings"

	"github.com/chepyr/go-task-board/internal/models"
)

// FilterBy describes which tasks a board view keeps and how each group's
// tasks are ordered. Empty fields do not restrict anything.
type FilterBy struct {
	ByGroups     []string `json:"byGroups,omitempty" yaml:"byGroups,omitempty"`
	ByNames      []string `json:"byNames,omitempty" yaml:"byNames,omitempty"`
	ByStatuses   []string `json:"byStatuses,omitempty" yaml:"byStatuses,omitempty"`
	ByPriorities []string `json:"byPriorities,omitempty" yaml:"byPriorities,omitempty"`
	ByMembers    []string `json:"byMembers,omitempty" yaml:"byMembers,omitempty"`
	ByPerson     string   `json:"byPerson,omitempty" yaml:"byPerson,omitempty"`
	ByDueDateOp  []string `json:"byDueDateOp,omitempty" yaml:"byDueDateOp,omitempty"`
	SortBy       string   `json:"sortBy,omitempty" yaml:"sortBy,omitempty"`
	Dir          int      `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// filtersTasks reports whether any task-level predicate is set.
func (f FilterBy) filtersTasks() bool {
	return len(f.ByNames) > 0 || len(f.ByStatuses) > 0 || len(f.ByPriorities) > 0 ||
		len(f.ByMembers) > 0 || f.ByPerson != "" || len(f.ByDueDateOp) > 0
}

type taskPredicate func(*models.Task) bool

// predicates returns the active task predicates in evaluation order.
func (f FilterBy) predicates(dates dueDates) []taskPredicate {
	var preds []taskPredicate
	if len(f.ByNames) > 0 {
		preds = append(preds, func(t *models.Task) bool {
			return slices.Contains(f.ByNames, t.Title)
		})
	}
	if len(f.ByStatuses) > 0 {
		preds = append(preds, func(t *models.Task) bool {
			return slices.Contains(f.ByStatuses, t.Status.ID)
		})
	}
	if len(f.ByPriorities) > 0 {
		preds = append(preds, func(t *models.Task) bool {
			return slices.Contains(f.ByPriorities, t.Priority.ID)
		})
	}
	if len(f.ByMembers) > 0 {
		preds = append(preds, func(t *models.Task) bool {
			return slices.ContainsFunc(t.MemberIDs, func(id string) bool {
				return slices.Contains(f.ByMembers, id)
			})
		})
	}
	if f.ByPerson != "" {
		preds = append(preds, func(t *models.Task) bool {
			return slices.Contains(t.MemberIDs, f.ByPerson)
		})
	}
	if len(f.ByDueDateOp) > 0 {
		preds = append(preds, func(t *models.Task) bool {
			return slices.ContainsFunc(f.ByDueDateOp, func(op string) bool {
				return dates.match(op, t)
			})
		})
	}
	return preds
}

func keepTask(t *models.Task, preds []taskPredicate) bool {
	for _, p := range preds {
		if !p(t) {
			return false
		}
	}
	return true
}

func sortTasks(tasks []models.Task, sortBy string, dir int, board *models.Board) {
	if sortBy == "" || dir == 0 {
		return
	}
	if dir > 0 {
		dir = 1
	} else {
		dir = -1
	}

	var cmp func(a, b *models.Task) int
	switch sortBy {
	case "name":
		cmp = func(a, b *models.Task) int { return strings.Compare(a.Title, b.Title) }
	case "date":
		cmp = func(a, b *models.Task) int { return compareInt(dueMillis(a), dueMillis(b)) }
	case "status":
		cmp = func(a, b *models.Task) int { return strings.Compare(a.Status.Txt, b.Status.Txt) }
	case "priority":
		cmp = func(a, b *models.Task) int { return strings.Compare(a.Priority.Txt, b.Priority.Txt) }
	case "members":
		cmp = func(a, b *models.Task) int {
			return strings.Compare(firstMemberName(a, board), firstMemberName(b, board))
		}
	default:
		return
	}
	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		return cmp(&a, &b) * dir
	})
}

func dueMillis(t *models.Task) int64 {
	if t.DueDate == nil {
		return 0
	}
	return t.DueDate.UnixMilli()
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func firstMemberName(t *models.Task, board *models.Board) string {
	if len(t.MemberIDs) == 0 {
		return ""
	}
	m, ok := board.Member(t.MemberIDs[0])
	if !ok {
		return ""
	}
	return m.Fullname
}
