package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository implementation
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, created_at`

func (r *userRepository) Create(ctx context.Context, name, email string) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("creating user: email=%s", email)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (name, email, created_at)
VALUES (?, ?, ?)
`, name, email, utc(time.Now()))
	if isUniqueViolation(err) {
		log.Debug("email already registered: %s", email)
		return nil, repository.ErrDuplicate
	}
	if err != nil {
		log.Error("failed to create user: %v", err)
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get user id: %v", err)
		return nil, err
	}
	log.Debug("user created: id=%d", id)
	return r.Get(ctx, id)
}

func (r *userRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")

	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("user not found: %s=%v", column, value)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get user: %v", err)
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		log.Error("failed to list users: %v", err)
		return nil, err
	}
	log.Debug("found %d users", len(users))
	return users, nil
}

// Delete removes the user; decks, progress, RSVPs and notifications go with it.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("deleting user: id=%d", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete user: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
