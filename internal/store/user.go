package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/usersoap/usersvc/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user under a freshly generated ID. Uniqueness of username,
// dni and email is enforced by the table constraints alone; a collision is
// reported as a *DuplicateKeyError.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = uuid.NewString()

	const query = `
		INSERT INTO users (id, username, password_hash, password_salt, first_name, last_name, dni, email, city)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.PasswordSalt,
		user.FirstName,
		user.LastName,
		user.DNI,
		user.Email,
		user.City,
	).Scan(&user.CreatedAt); err != nil {
		return types.User{}, classifyError(err)
	}
	return user, nil
}

// Count returns the number of stored users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&total); err != nil {
		return 0, classifyError(err)
	}
	return total, nil
}

// Ping runs a trivial query to check the store is reachable.
func (r *UserRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return classifyError(err)
	}
	return nil
}
