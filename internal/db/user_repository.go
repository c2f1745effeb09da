package db

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chepyr/go-task-board/internal/models"
)

// defines methods for user db operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = NormalizeID(user.ID)
	query := r.db.Rebind(`INSERT INTO users (id, fullname, img_url, created_at) VALUES (?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Fullname, user.ImgURL, user.CreatedAt)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	query := r.db.Rebind(`SELECT id, fullname, img_url, created_at FROM users WHERE id = ?`)
	err := r.db.GetContext(ctx, user, query, NormalizeID(id))
	return user, err
}

// FindByIDs returns the users matching any of the given ids. Missing ids are
// simply absent from the result.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	normalized := make([]string, len(ids))
	for i, id := range ids {
		normalized[i] = NormalizeID(id)
	}
	query, args, err := sqlx.In(`SELECT id, fullname, img_url, created_at FROM users WHERE id IN (?)`, normalized)
	if err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return users, nil
}

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// NormalizeID converts a member id into the form user rows are keyed by:
// 24-character hex object ids are lower-cased, UUIDs in any accepted
// spelling become canonical UUID text, anything else is left as is.
func NormalizeID(id string) string {
	if objectIDPattern.MatchString(id) {
		return strings.ToLower(id)
	}
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}
