package models

import (
	"time"
)

// Label is the id/label/color triple used for task status and priority.
type Label struct {
	ID     string `json:"id"`
	Txt    string `json:"txt"`
	CSSVar string `json:"cssVar"`
}

const StatusDone = "done"

var (
	DefaultStatus   = Label{ID: "todo", Txt: "Not Started", CSSVar: "#c4c4c4"}
	DefaultPriority = Label{ID: "default", Txt: "", CSSVar: "#c4c4c4"}
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	CreatedAt   time.Time  `json:"createdAt"`
	Owner       *MiniUser  `json:"owner,omitempty"`
	MemberIDs   []string   `json:"memberIds"`
	Status      Label      `json:"status"`
	Priority    Label      `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	DoneAt      *time.Time `json:"doneAt,omitempty"`
	Comments    []Comment  `json:"comments"`
	Updates     []Update   `json:"updates"`
	ActivityIDs []string   `json:"activityIds"`
}

func (t *Task) IsDone() bool {
	return t.Status.ID == StatusDone
}

func (t *Task) Normalize() {
	if t.MemberIDs == nil {
		t.MemberIDs = []string{}
	}
	if t.Comments == nil {
		t.Comments = []Comment{}
	}
	if t.Updates == nil {
		t.Updates = []Update{}
	}
	if t.ActivityIDs == nil {
		t.ActivityIDs = []string{}
	}
}

type Comment struct {
	ID        string    `json:"id"`
	Txt       string    `json:"txt"`
	CreatedAt time.Time `json:"createdAt"`
	ByMember  MiniUser  `json:"byMember"`
}

// Update is a short progress note; a task keeps them most recent first.
type Update struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	ByMember  MiniUser  `json:"byMember"`
}

// TaskDetails is the denormalized task record served by the task lookup.
type TaskDetails struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	GroupID    string     `json:"groupId"`
	CreatedAt  time.Time  `json:"createdAt"`
	Updates    []Update   `json:"updates"`
	Activities []Activity `json:"activities"`
}

// TaskFact is one task row unnested from the stored boards for analytics.
type TaskFact struct {
	Status    Label
	MemberIDs []string
}
