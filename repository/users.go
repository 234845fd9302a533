package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/biosecret/go-tasks/database"
	"github.com/biosecret/go-tasks/models"
	"github.com/biosecret/go-tasks/utils"
)

var userColumns = []string{"id", "username", "email", "password", "created_at"}

// UserRepository is the credential store.
type UserRepository struct {
	db  *database.DB
	now Clock
}

func NewUserRepository(db *database.DB, now Clock) *UserRepository {
	if now == nil {
		now = time.Now
	}
	return &UserRepository{db: db, now: now}
}

// Create stores a user whose password is already hashed. A duplicate email
// yields models.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID:           utils.NewID(),
		Username:     username,
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    r.now().UTC(),
	}

	query, args := r.db.Dialect.Builder().Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt).
		Query()
	_, err := r.db.ExecContext(ctx, query, args...)
	if r.db.Dialect.IsUniqueViolation(err) {
		return nil, models.ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// FindByEmail returns models.ErrNotFound for unknown addresses.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	b := r.db.Dialect.Builder()
	query, args := b.Select(userColumns...).
		From(b.Table("users")).
		Where(entsql.EQ("email", normalizeEmail(email))).
		Query()

	var u models.User
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, timestamp{&u.CreatedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
