// Package dashboard computes task statistics across every stored board.
package dashboard

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/chepyr/go-task-board/internal/db"
	"github.com/chepyr/go-task-board/internal/models"
)

// UnknownMember is the name reported for member ids with no user record.
const UnknownMember = "Unknown"

type TaskSource interface {
	TaskFacts(ctx context.Context) ([]models.TaskFact, error)
}

type UserFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type StatusStat struct {
	ID              string  `json:"id"`
	Txt             string  `json:"txt"`
	CSSVar          string  `json:"cssVar"`
	TasksCount      int     `json:"tasksCount"`
	TasksPercentage float64 `json:"tasksPercentage"`
}

type MemberStat struct {
	MemberID        string  `json:"memberId"`
	Fullname        string  `json:"fullname"`
	ImgURL          string  `json:"imgUrl"`
	TasksCount      int     `json:"tasksCount"`
	TasksPercentage float64 `json:"tasksPercentage"`
}

type Data struct {
	TasksCount int          `json:"tasksCount"`
	ByStatus   []StatusStat `json:"byStatus"`
	ByMember   []MemberStat `json:"byMember"`
}

type Service struct {
	tasks TaskSource
	users UserFinder
}

func New(tasks TaskSource, users UserFinder) *Service {
	return &Service{tasks: tasks, users: users}
}

// Get scans all tasks and reports the status and member distributions.
// A member assigned twice to the same task is counted twice.
func (s *Service) Get(ctx context.Context) (*Data, error) {
	facts, err := s.tasks.TaskFacts(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to build dashboard data")
		return nil, fmt.Errorf("dashboard task scan: %w", err)
	}

	data := &Data{
		TasksCount: len(facts),
		ByStatus:   []StatusStat{},
		ByMember:   []MemberStat{},
	}
	if data.TasksCount == 0 {
		return data, nil
	}

	statusIdx := map[string]int{}
	memberIdx := map[string]int{}
	for _, f := range facts {
		if i, ok := statusIdx[f.Status.ID]; ok {
			data.ByStatus[i].TasksCount++
		} else {
			statusIdx[f.Status.ID] = len(data.ByStatus)
			data.ByStatus = append(data.ByStatus, StatusStat{
				ID:         f.Status.ID,
				Txt:        f.Status.Txt,
				CSSVar:     f.Status.CSSVar,
				TasksCount: 1,
			})
		}
		for _, raw := range f.MemberIDs {
			id := db.NormalizeID(raw)
			if i, ok := memberIdx[id]; ok {
				data.ByMember[i].TasksCount++
				continue
			}
			memberIdx[id] = len(data.ByMember)
			data.ByMember = append(data.ByMember, MemberStat{MemberID: id, TasksCount: 1})
		}
	}

	if err := s.resolveMembers(ctx, data.ByMember); err != nil {
		log.WithError(err).Error("Failed to look up dashboard members")
		return nil, fmt.Errorf("dashboard member lookup: %w", err)
	}

	for i := range data.ByStatus {
		data.ByStatus[i].TasksPercentage = percentage(data.ByStatus[i].TasksCount, data.TasksCount)
	}
	for i := range data.ByMember {
		data.ByMember[i].TasksPercentage = percentage(data.ByMember[i].TasksCount, data.TasksCount)
	}

	slices.SortFunc(data.ByStatus, func(a, b StatusStat) int {
		return cmp.Or(cmp.Compare(b.TasksCount, a.TasksCount), cmp.Compare(a.ID, b.ID))
	})
	slices.SortFunc(data.ByMember, func(a, b MemberStat) int {
		return cmp.Or(cmp.Compare(b.TasksCount, a.TasksCount), cmp.Compare(a.MemberID, b.MemberID))
	})
	return data, nil
}

func (s *Service) resolveMembers(ctx context.Context, members []MemberStat) error {
	if len(members) == 0 {
		return nil
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.MemberID
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range members {
		u, ok := byID[members[i].MemberID]
		if !ok || u.Fullname == "" {
			members[i].Fullname = UnknownMember
		} else {
			members[i].Fullname = u.Fullname
		}
		if ok {
			members[i].ImgURL = u.ImgURL
		}
	}
	return nil
}

// percentage returns count/total as a percentage rounded to one decimal.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}
