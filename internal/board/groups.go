package board

import (
	"context"

	"github.com/chepyr/go-task-board/internal/models"
)

// AddGroup appends a new empty group to the end of the board.
func (s *Service) AddGroup(ctx context.Context, actor models.Actor, boardID, title string) (*models.Group, error) {
	const op = "add group"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	owner := actor.Mini()
	group := models.Group{
		ID:          s.newID(),
		Title:       title,
		CreatedAt:   s.now(),
		IsCollapsed: false,
		Style:       models.GroupStyle{Color: s.pickColor()},
		Owner:       &owner,
		Tasks:       []models.Task{},
	}
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		b.Groups = append(b.Groups, group)
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return &group, nil
}

// UpdateGroup replaces the whole group that has the same id. Groups are never
// merged field by field.
func (s *Service) UpdateGroup(ctx context.Context, boardID string, group models.Group) (*models.Group, error) {
	const op = "update group"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	if group.Tasks == nil {
		group.Tasks = []models.Task{}
	}
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		idx := b.GroupIndex(group.ID)
		if idx < 0 {
			return notFound(op, boardID, group.ID, "", "group not found")
		}
		b.Groups[idx] = group
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return &group, nil
}

// ReorderGroups replaces the board's group sequence with the given order.
// The caller is trusted to send a permutation of the current groups.
func (s *Service) ReorderGroups(ctx context.Context, boardID string, groups []models.Group) ([]models.Group, error) {
	const op = "update group order"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []models.Group{}
	}
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		b.Groups = groups
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return groups, nil
}

// RemoveGroup deletes a group with all its tasks and returns the id and
// title it had before removal.
func (s *Service) RemoveGroup(ctx context.Context, boardID, groupID string) (*models.GroupRef, error) {
	const op = "remove group"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	var removed models.GroupRef
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		idx := b.GroupIndex(groupID)
		if idx < 0 {
			return notFound(op, boardID, groupID, "", "group not found")
		}
		removed = models.GroupRef{ID: b.Groups[idx].ID, Title: b.Groups[idx].Title}
		b.Groups = append(b.Groups[:idx], b.Groups[idx+1:]...)
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return &removed, nil
}
