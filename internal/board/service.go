package board

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/chepyr/go-task-board/internal/db"
	"github.com/chepyr/go-task-board/internal/models"
	"github.com/chepyr/go-task-board/internal/view"
)

// Store is the aggregate store the engine works against. Load and Mutate
// report a missing board with db.ErrNotFound. Mutate must apply fn and persist
// the result as one atomic step; an error from fn aborts the write and is
// returned unchanged.
type Store interface {
	List(ctx context.Context) ([]models.BoardSummary, error)
	Load(ctx context.Context, id string) (*models.Board, error)
	Insert(ctx context.Context, board *models.Board) error
	Replace(ctx context.Context, board *models.Board) (int64, error)
	Delete(ctx context.Context, id, owner string) (int64, error)
	Mutate(ctx context.Context, id string, fn func(*models.Board) error) error
}

var groupColors = []string{
	"#17804d", "#27c977", "#9dd435", "#c8b649", "#fccb29", "#794acf", "#9d4edb", "#1e7eb3",
	"#5f9bf9", "#6fccfd", "#b83055", "#db2a4d", "#fa0080", "#fb57c3", "#fa6237", "#f9aa47",
	"#7d5348", "#c4c4c4", "#757575",
}

func randomGroupColor() string {
	return groupColors[rand.IntN(len(groupColors))]
}

// Service implements board, group and task mutations on top of a Store.
type Service struct {
	store     Store
	now       func() time.Time
	newID     func() string
	pickColor func() string
	log       *log.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithColorPicker(pick func() string) Option {
	return func(s *Service) { s.pickColor = pick }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.log = l }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		pickColor: randomGroupColor,
		log:       log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query lists every board as an id/title/starred summary.
func (s *Service) Query(ctx context.Context) ([]models.BoardSummary, error) {
	boards, err := s.store.List(ctx)
	if err != nil {
		s.log.WithError(err).Error("cannot find boards")
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

func (s *Service) GetByID(ctx context.Context, boardID string) (*models.Board, error) {
	const op = "get board"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	board, err := s.store.Load(ctx, boardID)
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return board, nil
}

// GetView loads a board and derives its filtered and sorted view.
func (s *Service) GetView(ctx context.Context, boardID string, filter view.FilterBy) (*view.Result, error) {
	board, err := s.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	res := view.Apply(board, filter, s.now())
	return &res, nil
}

// Create stores a new board owned by the actor. The owner is always the
// first member.
func (s *Service) Create(ctx context.Context, actor models.Actor, board models.Board) (*models.Board, error) {
	owner := actor.Mini()
	board.ID = s.newBoardID()
	board.CreatedAt = s.now()
	board.Owner = &owner

	members := []models.MiniUser{owner}
	for _, m := range board.Members {
		if m.ID != owner.ID {
			members = append(members, m)
		}
	}
	board.Members = members

	if err := s.store.Insert(ctx, &board); err != nil {
		return nil, s.storeErr("insert board", board.ID, err)
	}
	return &board, nil
}

// Update replaces every field of an existing board except its id.
func (s *Service) Update(ctx context.Context, board models.Board) (*models.Board, error) {
	const op = "update board"
	if err := checkBoardID(op, board.ID); err != nil {
		return nil, err
	}
	n, err := s.store.Replace(ctx, &board)
	if err != nil {
		return nil, s.storeErr(op, board.ID, err)
	}
	if n == 0 {
		return nil, notFound(op, board.ID, "", "", "")
	}
	return &board, nil
}

// Remove deletes a board. Non-admin actors can only delete boards they own;
// a foreign board and a missing board fail the same way.
func (s *Service) Remove(ctx context.Context, actor models.Actor, boardID string) error {
	const op = "remove board"
	if err := checkBoardID(op, boardID); err != nil {
		return err
	}
	owner := actor.ID
	if actor.IsAdmin {
		owner = ""
	}
	n, err := s.store.Delete(ctx, boardID, owner)
	if err != nil {
		return s.storeErr(op, boardID, err)
	}
	if n == 0 {
		return &Error{Kind: KindPermissionDenied, Op: op, Message: "not your board", BoardID: boardID}
	}
	return nil
}

func (s *Service) AddMessage(ctx context.Context, actor models.Actor, boardID, txt string) (*models.Message, error) {
	const op = "add board msg"
	if err := checkBoardID(op, boardID); err != nil {
		return nil, err
	}
	msg := models.Message{ID: s.newID(), Txt: txt, By: actor.Mini()}
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		b.Msgs = append(b.Msgs, msg)
		return nil
	})
	if err != nil {
		return nil, s.storeErr(op, boardID, err)
	}
	return &msg, nil
}

// RemoveMessage drops a message by id. Removing an unknown message succeeds.
func (s *Service) RemoveMessage(ctx context.Context, boardID, msgID string) error {
	const op = "remove board msg"
	if err := checkBoardID(op, boardID); err != nil {
		return err
	}
	err := s.store.Mutate(ctx, boardID, func(b *models.Board) error {
		msgs := b.Msgs[:0]
		for _, m := range b.Msgs {
			if m.ID != msgID {
				msgs = append(msgs, m)
			}
		}
		b.Msgs = msgs
		return nil
	})
	if err != nil {
		return s.storeErr(op, boardID, err)
	}
	return nil
}

func (s *Service) newBoardID() string {
	return uuid.NewString()
}

func checkBoardID(op, boardID string) error {
	if _, err := uuid.Parse(boardID); err != nil {
		return invalidArgument(op, fmt.Sprintf("malformed board id %q", boardID), err)
	}
	return nil
}

// storeErr turns a store failure into the error returned to callers.
// Engine errors pass through, a missing board becomes NotFound and anything
// else is logged and wrapped with the operation context.
func (s *Service) storeErr(op, boardID string, err error) error {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr
	}
	if errors.Is(err, db.ErrNotFound) {
		return notFound(op, boardID, "", "", "")
	}
	s.log.WithFields(log.Fields{"op": op, "board": boardID}).WithError(err).Error("board store failure")
	return fmt.Errorf("%s %s: %w", op, boardID, err)
}
