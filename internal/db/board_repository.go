package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/chepyr/go-task-board/internal/models"
)

// mutateAttempts bounds how often Mutate re-reads a board after losing
// the version race to another writer.
const mutateAttempts = 5

// BoardRepository stores each board aggregate as one JSON document.
// Denormalized columns (title, owner, starred) serve listing and the
// ownership check on delete; the version column serializes writers.
type BoardRepository struct {
	db      *sqlx.DB
	dialect dialect
}

func NewBoardRepository(db *sqlx.DB) *BoardRepository {
	d, err := dialectFor(db.DriverName())
	if err != nil {
		// Connect already rejects unknown drivers.
		d = postgresDialect
	}
	return &BoardRepository{db: db, dialect: d}
}

func (r *BoardRepository) List(ctx context.Context) ([]models.BoardSummary, error) {
	boards := []models.BoardSummary{}
	query := `SELECT id, title, is_starred FROM boards ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &boards, query); err != nil {
		return nil, err
	}
	return boards, nil
}

func (r *BoardRepository) Load(ctx context.Context, id string) (*models.Board, error) {
	var doc []byte
	query := r.db.Rebind(`SELECT doc FROM boards WHERE id = ?`)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeBoard(doc)
}

func (r *BoardRepository) Insert(ctx context.Context, board *models.Board) error {
	board.Normalize()
	doc, err := sonic.ConfigStd.Marshal(board)
	if err != nil {
		return fmt.Errorf("encode board %s: %w", board.ID, err)
	}
	query := r.db.Rebind(`INSERT INTO boards (id, owner_id, title, is_starred, doc, version, created_at)
	 VALUES (?, ?, ?, ?, ?, 1, ?)`)
	_, err = r.db.ExecContext(ctx, query,
		board.ID, ownerID(board), board.Title, board.IsStarred, string(doc), board.CreatedAt)
	return err
}

// Replace overwrites every field of an existing board and reports how many
// rows matched.
func (r *BoardRepository) Replace(ctx context.Context, board *models.Board) (int64, error) {
	board.Normalize()
	doc, err := sonic.ConfigStd.Marshal(board)
	if err != nil {
		return 0, fmt.Errorf("encode board %s: %w", board.ID, err)
	}
	query := r.db.Rebind(`UPDATE boards SET owner_id = ?, title = ?, is_starred = ?, doc = ?, version = version + 1
	 WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		ownerID(board), board.Title, board.IsStarred, string(doc), board.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a board. A non-empty owner restricts the delete to boards
// owned by that user.
func (r *BoardRepository) Delete(ctx context.Context, id, owner string) (int64, error) {
	query := `DELETE FROM boards WHERE id = ?`
	args := []any{id}
	if owner != "" {
		query += ` AND owner_id = ?`
		args = append(args, owner)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Mutate loads a board, applies fn to it and writes the result back only if
// nobody else wrote the board in between. When fn returns an error nothing is
// written and the error is returned unchanged.
func (r *BoardRepository) Mutate(ctx context.Context, id string, fn func(*models.Board) error) error {
	selectQuery := r.db.Rebind(`SELECT doc, version FROM boards WHERE id = ?`)
	updateQuery := r.db.Rebind(`UPDATE boards SET owner_id = ?, title = ?, is_starred = ?, doc = ?, version = version + 1
	 WHERE id = ? AND version = ?`)

	for attempt := 0; attempt < mutateAttempts; attempt++ {
		var (
			doc     []byte
			version int64
		)
		if err := r.db.QueryRowContext(ctx, selectQuery, id).Scan(&doc, &version); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		board, err := decodeBoard(doc)
		if err != nil {
			return err
		}
		if err := fn(board); err != nil {
			return err
		}
		board.ID = id
		board.Normalize()
		next, err := sonic.ConfigStd.Marshal(board)
		if err != nil {
			return fmt.Errorf("encode board %s: %w", id, err)
		}
		res, err := r.db.ExecContext(ctx, updateQuery,
			ownerID(board), board.Title, board.IsStarred, string(next), id, version)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 1 {
			return nil
		}
	}
	return ErrConflict
}

type taskFactRow struct {
	StatusID  sql.NullString `db:"status_id"`
	StatusTxt sql.NullString `db:"status_txt"`
	StatusCSS sql.NullString `db:"status_css"`
	MemberIDs []byte         `db:"member_ids"`
}

// TaskFacts unnests every task of every board into one row per task.
func (r *BoardRepository) TaskFacts(ctx context.Context) ([]models.TaskFact, error) {
	var rows []taskFactRow
	if err := r.db.SelectContext(ctx, &rows, r.dialect.taskFacts); err != nil {
		return nil, fmt.Errorf("unnest tasks: %w", err)
	}
	facts := make([]models.TaskFact, 0, len(rows))
	for _, row := range rows {
		fact := models.TaskFact{
			Status: models.Label{
				ID:     row.StatusID.String,
				Txt:    row.StatusTxt.String,
				CSSVar: row.StatusCSS.String,
			},
		}
		if len(row.MemberIDs) > 0 {
			if err := sonic.ConfigStd.Unmarshal(row.MemberIDs, &fact.MemberIDs); err != nil {
				return nil, fmt.Errorf("decode task members: %w", err)
			}
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

func decodeBoard(doc []byte) (*models.Board, error) {
	board := &models.Board{}
	if err := sonic.ConfigStd.Unmarshal(doc, board); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	board.Normalize()
	return board, nil
}

func ownerID(board *models.Board) string {
	if board.Owner == nil {
		return ""
	}
	return board.Owner.ID
}
