package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chepyr/go-task-board/internal/models"
)

func TestUserRepository_CreateAndGetByID(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := &models.User{
		ID:        "64B7F0C2A1D3E4F5A6B7C8D9",
		Fullname:  "Ada Lovelace",
		ImgURL:    "https://example.com/ada.png",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "64b7f0c2a1d3e4f5a6b7c8d9", user.ID)

	got, err := repo.GetByID(ctx, "64b7f0c2a1d3e4f5a6b7c8d9")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Fullname)
	assert.Equal(t, "https://example.com/ada.png", got.ImgURL)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepository_FindByIDs(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	for _, u := range []models.User{
		{ID: "u1", Fullname: "One"},
		{ID: "u2", Fullname: "Two"},
		{ID: "u3", Fullname: "Three"},
	} {
		u := u
		u.CreatedAt = time.Now().UTC()
		require.NoError(t, repo.Create(ctx, &u))
	}

	users, err := repo.FindByIDs(ctx, []string{"u1", "u3", "nobody"})
	require.NoError(t, err)
	names := map[string]string{}
	for _, u := range users {
		names[u.ID] = u.Fullname
	}
	assert.Equal(t, map[string]string{"u1": "One", "u3": "Three"}, names)

	users, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "64B7F0C2A1D3E4F5A6B7C8D9", want: "64b7f0c2a1d3e4f5a6b7c8d9"},
		{in: "64b7f0c2a1d3e4f5a6b7c8d9", want: "64b7f0c2a1d3e4f5a6b7c8d9"},
		{in: "6F9619FF-8B86-D011-B42D-00C04FC964FF", want: "6f9619ff-8b86-d011-b42d-00c04fc964ff"},
		{in: "6f9619ff8b86d011b42d00c04fc964ff", want: "6f9619ff-8b86-d011-b42d-00c04fc964ff"},
		{in: "u101", want: "u101"},
		{in: "64b7f0c2a1d3e4f5a6b7c8dz", want: "64b7f0c2a1d3e4f5a6b7c8dz"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeID(tt.in))
		})
	}
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name          string
		driverName    string
		dsn           string
		expectedError bool
	}{
		{name: "Successful connection with SQLite", driverName: "sqlite3", dsn: ":memory:"},
		{name: "Failed connection with invalid DSN", driverName: "sqlite3", dsn: "file::memory:?mode=invalid", expectedError: true},
		{name: "Unsupported driver", driverName: "mysql", dsn: "x", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := Connect(tt.driverName, tt.dsn)
			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, conn)
				return
			}
			require.NoError(t, err)
			defer conn.Close()
			assert.Equal(t, 1, conn.Stats().MaxOpenConnections)
		})
	}
}
