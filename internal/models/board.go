package models

import (
	"time"
)

// MiniUser is the reduced user copy embedded in boards, tasks and activities.
type MiniUser struct {
	ID       string `json:"_id" yaml:"_id"`
	Fullname string `json:"fullname" yaml:"fullname"`
	ImgURL   string `json:"imgUrl,omitempty" yaml:"imgUrl,omitempty"`
}

// Actor is the user performing a mutation.
type Actor struct {
	ID       string
	Fullname string
	ImgURL   string
	IsAdmin  bool
}

func (a Actor) Mini() MiniUser {
	return MiniUser{ID: a.ID, Fullname: a.Fullname, ImgURL: a.ImgURL}
}

type Board struct {
	ID         string     `json:"_id"`
	Title      string     `json:"title"`
	IsStarred  bool       `json:"isStarred"`
	CreatedAt  time.Time  `json:"createdAt"`
	Owner      *MiniUser  `json:"owner,omitempty"`
	Members    []MiniUser `json:"members"`
	Groups     []Group    `json:"groups"`
	Msgs       []Message  `json:"msgs"`
	Activities []Activity `json:"activities"`
}

// BoardSummary is the list projection of a board.
type BoardSummary struct {
	ID        string `json:"_id" db:"id"`
	Title     string `json:"title" db:"title"`
	IsStarred bool   `json:"isStarred" db:"is_starred"`
}

type GroupStyle struct {
	Color string `json:"color"`
}

type Group struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	CreatedAt   time.Time  `json:"createdAt"`
	IsCollapsed bool       `json:"isCollapsed"`
	Style       GroupStyle `json:"style"`
	Owner       *MiniUser  `json:"owner,omitempty"`
	Tasks       []Task     `json:"tasks"`
}

// GroupRef and TaskRef are id+title snapshots stored inside activities.
type GroupRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type TaskRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Message struct {
	ID  string   `json:"id"`
	Txt string   `json:"txt"`
	By  MiniUser `json:"by"`
}

type Activity struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	ByMember  MiniUser  `json:"byMember"`
	Group     GroupRef  `json:"group"`
	Task      TaskRef   `json:"task"`
}

// GroupIndex returns the position of the group with the given id, or -1.
func (b *Board) GroupIndex(id string) int {
	for i := range b.Groups {
		if b.Groups[i].ID == id {
			return i
		}
	}
	return -1
}

// TaskIndex returns the position of the task with the given id, or -1.
func (g *Group) TaskIndex(id string) int {
	for i := range g.Tasks {
		if g.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Member looks a board member up by id.
func (b *Board) Member(id string) (MiniUser, bool) {
	for _, m := range b.Members {
		if m.ID == id {
			return m, true
		}
	}
	return MiniUser{}, false
}

// Normalize replaces nil sequences with empty ones so the stored document
// never carries null arrays.
func (b *Board) Normalize() {
	if b.Members == nil {
		b.Members = []MiniUser{}
	}
	if b.Groups == nil {
		b.Groups = []Group{}
	}
	if b.Msgs == nil {
		b.Msgs = []Message{}
	}
	if b.Activities == nil {
		b.Activities = []Activity{}
	}
	for i := range b.Groups {
		g := &b.Groups[i]
		if g.Tasks == nil {
			g.Tasks = []Task{}
		}
		for j := range g.Tasks {
			g.Tasks[j].Normalize()
		}
	}
}
