package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventplanner/internal/domain/category"
)

type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) List(ctx context.Context) ([]category.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT c.id, c.name, c.created_at, c.updated_at,
               (SELECT COUNT(*) FROM events e WHERE e.category_id = c.id)
        FROM categories c
        ORDER BY lower(c.name), c.id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []category.Category
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &c.EventsCount); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	c := &category.Category{}
	err := r.db.QueryRowContext(ctx, `
        SELECT c.id, c.name, c.created_at, c.updated_at,
               (SELECT COUNT(*) FROM events e WHERE e.category_id = c.id)
        FROM categories c WHERE c.id = $1
    `, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &c.EventsCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, category.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CategoryRepo) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx, `
        SELECT EXISTS (SELECT 1 FROM categories WHERE lower(name) = lower($1) AND id <> $2)
    `, name, exceptID).Scan(&taken)
	return taken, err
}

func (r *CategoryRepo) Create(ctx context.Context, c *category.Category) error {
	err := r.db.QueryRowContext(ctx, `
        INSERT INTO categories (name) VALUES ($1)
        RETURNING id, created_at, updated_at
    `, c.Name).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return category.ErrNameTaken
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *CategoryRepo) Update(ctx context.Context, c *category.Category) error {
	err := r.db.QueryRowContext(ctx, `
        UPDATE categories SET name = $1, updated_at = now()
        WHERE id = $2
        RETURNING updated_at
    `, c.Name, c.ID).Scan(&c.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return category.ErrCategoryNotFound
	case isUniqueViolation(err):
		return category.ErrNameTaken
	}
	return err
}

// Delete locks the category row so no event can be attached to it between
// the dependent count and the delete.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return category.ErrCategoryNotFound
	}
	if err != nil {
		return err
	}

	var dependents int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE category_id = $1`, id).Scan(&dependents); err != nil {
		return err
	}
	if dependents > 0 {
		return category.ErrHasDependents
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return category.ErrHasDependents
		}
		return err
	}
	return tx.Commit()
}
