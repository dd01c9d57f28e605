package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"eventplanner/internal/domain/access"
	"eventplanner/internal/domain/page"
	"eventplanner/internal/domain/user"
)

const userColumns = `id, name, email, password_hash, phone, avatar_path, roles, created_at, updated_at`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var (
		u     user.User
		roles []string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.AvatarPath,
		pgtype.NewMap().SQLScanner(&roles), &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Roles = access.NewPrincipal(u.ID, roles).Roles
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	query := `
        INSERT INTO users (name, email, password_hash, phone, avatar_path, roles)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Phone, u.AvatarPath, u.RoleNames()).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return r.one(row)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.one(row)
}

func (r *UserRepo) one(row *sql.Row) (*user.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepo) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx, `
        SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)
    `, email, exceptID).Scan(&taken)
	return taken, err
}

func (r *UserRepo) List(ctx context.Context, req page.Request) ([]user.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT `+userColumns+`
        FROM users ORDER BY name, id
        LIMIT $1 OFFSET $2
    `, req.Limit(), req.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var usersList []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		usersList = append(usersList, *u)
	}
	return usersList, total, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, u *user.User, passwordHash string) error {
	err := r.db.QueryRowContext(ctx, `
        UPDATE users SET name = $1, email = $2, phone = $3, roles = $4,
            password_hash = COALESCE(NULLIF($5, ''), password_hash), updated_at = now()
        WHERE id = $6
        RETURNING password_hash, updated_at
    `, u.Name, u.Email, u.Phone, u.RoleNames(), passwordHash, u.ID).Scan(&u.PasswordHash, &u.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return user.ErrUserNotFound
	case isUniqueViolation(err):
		return user.ErrEmailTaken
	}
	return err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id)
}

func (r *UserRepo) SetAvatar(ctx context.Context, id int64, path *string) error {
	return r.exec(ctx, `UPDATE users SET avatar_path = $1, updated_at = now() WHERE id = $2`, path, id)
}

func (r *UserRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// Delete relies on the schema: registrations cascade, events restrict.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	err := r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return user.ErrHasEvents
	}
	return err
}
