package view

import (
	"slices"
	"time"

	"github.com/chepyr/go-task-board/internal/models"
)

// GroupOption is one entry of the group picker.
type GroupOption struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Color      string `json:"color"`
	TasksCount int    `json:"tasksCount"`
}

// NameOption is a distinct task title and how many tasks carry it.
type NameOption struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Options summarizes the unfiltered board for filter pickers.
type Options struct {
	Groups []GroupOption `json:"groups"`
	Names  []NameOption  `json:"names"`
}

type Result struct {
	Board   models.Board `json:"board"`
	Options Options      `json:"filterOptions"`
}

// Apply filters and sorts a copy of board. The board passed in is left
// untouched; now anchors the due-date operations.
func Apply(board *models.Board, f FilterBy, now time.Time) Result {
	out := *board
	out.Owner = clonePtr(board.Owner)
	out.Members = slices.Clone(board.Members)
	out.Msgs = slices.Clone(board.Msgs)
	out.Activities = slices.Clone(board.Activities)
	out.Groups = make([]models.Group, 0, len(board.Groups))

	preds := f.predicates(newDueDates(now))
	dropEmpty := f.filtersTasks()

	for _, g := range board.Groups {
		if len(f.ByGroups) > 0 && !slices.Contains(f.ByGroups, g.ID) {
			continue
		}
		tasks := make([]models.Task, 0, len(g.Tasks))
		for i := range g.Tasks {
			if keepTask(&g.Tasks[i], preds) {
				tasks = append(tasks, copyTask(g.Tasks[i]))
			}
		}
		if dropEmpty && len(tasks) == 0 {
			continue
		}
		sortTasks(tasks, f.SortBy, f.Dir, board)
		g.Owner = clonePtr(g.Owner)
		g.Tasks = tasks
		out.Groups = append(out.Groups, g)
	}

	return Result{Board: out, Options: Summarize(board)}
}

func copyTask(t models.Task) models.Task {
	t.Owner = clonePtr(t.Owner)
	t.MemberIDs = slices.Clone(t.MemberIDs)
	t.Comments = slices.Clone(t.Comments)
	t.Updates = slices.Clone(t.Updates)
	t.ActivityIDs = slices.Clone(t.ActivityIDs)
	t.DueDate = clonePtr(t.DueDate)
	t.DoneAt = clonePtr(t.DoneAt)
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Summarize lists every group with its task count and every distinct task
// title with its number of occurrences, both in board order.
func Summarize(board *models.Board) Options {
	opts := Options{
		Groups: make([]GroupOption, 0, len(board.Groups)),
		Names:  []NameOption{},
	}
	seen := map[string]int{}
	for _, g := range board.Groups {
		opts.Groups = append(opts.Groups, GroupOption{
			ID:         g.ID,
			Title:      g.Title,
			Color:      g.Style.Color,
			TasksCount: len(g.Tasks),
		})
		for _, t := range g.Tasks {
			if i, ok := seen[t.Title]; ok {
				opts.Names[i].Count++
				continue
			}
			seen[t.Title] = len(opts.Names)
			opts.Names = append(opts.Names, NameOption{Name: t.Title, Count: 1})
		}
	}
	return opts
}
