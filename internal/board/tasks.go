package board

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/bytedance/sonic"

	"github.com/chepyr/go-task-board/internal/models"
)

// Placement selects where AddTask puts the new task inside its group.
type Placement int

const (
	AtEnd Placement = iota
	AtFront
)

// ParsePlacement maps the "push"/"unshift" method names to a Placement.
func ParsePlacement(method string) (Placement, error) {
	switch method {
	case "", "push":
		return AtEnd, nil
	case "unshift":
		return AtFront, nil
	default:
		return AtEnd, invalidArgument("add task", "unknown placement method "+method, nil)
	}
}

// TaskChange is the outcome of UpdateTask: the applied fields, the task as
// stored afterwards and the activity recorded for the edit.
type TaskChange struct {
	Patch    map[string]any  `json:"patch"`
	Task     models.Task     `json:"task"`
	Activity models.Activity `json:"activity"`
}

// GetTask finds a task anywhere in the board and returns it together with
// the board activities that concern it, newest first.
func (s *Service) GetTask(ctx context.Context, boardID, taskID string) (*models.TaskDetails, error) {
	board, err := s.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	for _, g := range board.Groups {
		idx := g.TaskIndex(taskID)
		if idx < 0 {
			continue
		}
		task := g.Tasks[idx]
		activities := []models.Activity{}
		for _, a := range board.Activities {
			if a.Task.ID == taskID {
				activities = append(activities, a)
			}
		}
		slices.SortStableFunc(activities, func(a, b models.Activity) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		return &models.TaskDetails{
			ID:         task.ID,
			Title:      task.Title,
			GroupID:    g.ID,
			CreatedAt:  task.CreatedAt,
			Updates:    task.Updates,
			Activities: activities,
		}, nil
	}
	return nil, notFound("get task", boardID, "", taskID, "task not found")
}

// AddTask creates a task with default status and priority in the given group.
func (s *Service) AddTask(ctx context.Context, actor models.Actor, boardID, groupID, title string, placement Placement) (*models.Task, error) {
	const op = "add task"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	owner := actor.Mini()
	task := models.Task{
		ID:        s.newID(),
		Title:     title,
		CreatedAt: s.now(),
		Owner:     &owner,
		Status:    models.DefaultStatus,
		Priority:  models.DefaultPriority,
	}
	task.Normalize()

	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		g, err := findGroup(op, b, boardID, groupID)
		if err != nil {
			return err
		}
		if placement == AtFront {
			g.Tasks = slices.Insert(g.Tasks, 0, task)
		} else {
			g.Tasks = append(g.Tasks, task)
		}
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return &task, nil
}

// DuplicateTask copies a task and inserts the copy right after it. The source
// lookup and the insert happen in one store write.
func (s *Service) DuplicateTask(ctx context.Context, actor models.Actor, boardID, groupID, sourceTaskID string) (*models.Task, error) {
	const op = "duplicate task"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	owner := actor.Mini()
	id, createdAt := s.newID(), s.now()

	var dup models.Task
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		g, err := findGroup(op, b, boardID, groupID)
		if err != nil {
			return err
		}
		idx := g.TaskIndex(sourceTaskID)
		if idx < 0 {
			return notFound(op, boardID, groupID, sourceTaskID, "source task not found")
		}
		dup = cloneTask(g.Tasks[idx])
		dup.ID = id
		dup.CreatedAt = createdAt
		dup.Owner = &owner
		dup.ActivityIDs = []string{}
		g.Tasks = slices.Insert(g.Tasks, idx+1, dup)
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return &dup, nil
}

// UpdateTask sets every field present in patch on the addressed task and
// appends an activity describing the edit to the board.
func (s *Service) UpdateTask(ctx context.Context, actor models.Actor, boardID, groupID, taskID string, patch map[string]any, activityTitle string) (*TaskChange, error) {
	const op = "update task"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	applied := make(map[string]any, len(patch))
	for k, v := range patch {
		if k != "id" {
			applied[k] = v
		}
	}
	activityID, now := s.newID(), s.now()

	var change TaskChange
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		gi := b.GroupIndex(groupID)
		if gi < 0 {
			return consistencyFault(op, boardID, groupID, taskID, "group not found in board")
		}
		g := &b.Groups[gi]
		ti := g.TaskIndex(taskID)
		if ti < 0 {
			return consistencyFault(op, boardID, groupID, taskID, "task not found in group")
		}
		task := &g.Tasks[ti]
		if err := applyPatch(task, applied, now); err != nil {
			return invalidArgument(op, "cannot apply task patch", err)
		}

		activity := models.Activity{
			ID:        activityID,
			Title:     activityTitle,
			CreatedAt: now,
			ByMember:  actor.Mini(),
			Group:     models.GroupRef{ID: g.ID, Title: g.Title},
			Task:      models.TaskRef{ID: task.ID, Title: task.Title},
		}
		task.ActivityIDs = append(task.ActivityIDs, activity.ID)
		b.Activities = append(b.Activities, activity)

		change = TaskChange{Patch: applied, Task: cloneTask(*task), Activity: activity}
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return &change, nil
}

// AddUpdate puts a progress note at the front of the task's updates.
func (s *Service) AddUpdate(ctx context.Context, actor models.Actor, boardID, groupID, taskID, title string) (*models.Update, error) {
	const op = "add update"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	update := models.Update{ID: s.newID(), Title: title, CreatedAt: s.now(), ByMember: actor.Mini()}
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		gi := b.GroupIndex(groupID)
		if gi < 0 {
			return consistencyFault(op, boardID, groupID, taskID, "group not found in board")
		}
		g := &b.Groups[gi]
		ti := g.TaskIndex(taskID)
		if ti < 0 {
			return consistencyFault(op, boardID, groupID, taskID, "task not found in group")
		}
		g.Tasks[ti].Updates = slices.Insert(g.Tasks[ti].Updates, 0, update)
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return &update, nil
}

// ReorderTasks replaces the task sequence of one group.
func (s *Service) ReorderTasks(ctx context.Context, boardID, groupID string, tasks []models.Task) ([]models.Task, error) {
	const op = "update task order"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		g, err := findGroup(op, b, boardID, groupID)
		if err != nil {
			return err
		}
		g.Tasks = tasks
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return tasks, nil
}

// RemoveTask deletes a task from its group and returns it as it was.
func (s *Service) RemoveTask(ctx context.Context, boardID, groupID, taskID string) (*models.Task, error) {
	const op = "remove task"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	var removed models.Task
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		g, err := findGroup(op, b, boardID, groupID)
		if err != nil {
			return err
		}
		idx := g.TaskIndex(taskID)
		if idx < 0 {
			return notFound(op, boardID, groupID, taskID, "task not found")
		}
		removed = g.Tasks[idx]
		g.Tasks = slices.Delete(g.Tasks, idx, idx+1)
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return &removed, nil
}

func findGroup(op string, b *models.Board, boardID, groupID string) (*models.Group, error) {
	idx := b.GroupIndex(groupID)
	if idx < 0 {
		return nil, notFound(op, boardID, groupID, "", "group not found")
	}
	return &b.Groups[idx], nil
}

func cloneTask(t models.Task) models.Task {
	t.MemberIDs = slices.Clone(t.MemberIDs)
	t.Comments = slices.Clone(t.Comments)
	t.Updates = slices.Clone(t.Updates)
	t.ActivityIDs = slices.Clone(t.ActivityIDs)
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.DoneAt != nil {
		d := *t.DoneAt
		t.DoneAt = &d
	}
	t.Normalize()
	return t
}

// applyPatch overlays patch onto the task's JSON form and decodes the result
// back, rejecting keys that are not task fields. Moving a task into or out of
// the done status maintains doneAt unless the patch sets it explicitly.
func applyPatch(task *models.Task, patch map[string]any, now time.Time) error {
	current, err := sonic.ConfigStd.Marshal(task)
	if err != nil {
		return err
	}
	fields := map[string]any{}
	if err := sonic.ConfigStd.Unmarshal(current, &fields); err != nil {
		return err
	}
	for k, v := range patch {
		fields[k] = v
	}
	merged, err := sonic.ConfigStd.Marshal(fields)
	if err != nil {
		return err
	}
	dec := sonic.ConfigStd.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	var next models.Task
	if err := dec.Decode(&next); err != nil {
		return err
	}
	next.ID = task.ID
	next.Normalize()

	_, statusSet := patch["status"]
	_, doneAtSet := patch["doneAt"]
	if statusSet && !doneAtSet {
		switch {
		case next.IsDone() && !task.IsDone():
			done := now
			next.DoneAt = &done
		case !next.IsDone():
			next.DoneAt = nil
		}
	}
	*task = next
	return nil
}
