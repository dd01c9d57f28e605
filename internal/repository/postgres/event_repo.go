package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventplanner/internal/domain/event"
)

// Prices are NUMERIC(10,2) in the table and cents in Go.
const listedColumns = `
        e.id, e.title, e.description, e.start_at, e.end_at, e.place, e.capacity,
        (e.price * 100)::bigint, e.is_free, e.image_path, e.category_id, e.created_by,
        e.status, e.created_at, e.updated_at,
        c.name,
        (SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id)`

type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

func listedDest(l *event.Listed, cents *int64) []any {
	return []any{
		&l.ID, &l.Title, &l.Description, &l.StartAt, &l.EndAt, &l.Place, &l.Capacity,
		cents, &l.IsFree, &l.ImagePath, &l.CategoryID, &l.CreatedBy,
		&l.Status, &l.CreatedAt, &l.UpdatedAt,
		&l.CategoryName,
		&l.RegisteredCount,
	}
}

func (r *EventRepo) Create(ctx context.Context, e *event.Event) error {
	query := `
        INSERT INTO events (title, description, start_at, end_at, place, capacity, price, is_free,
                            image_path, category_id, created_by, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7::bigint / 100.0, $8, $9, $10, $11, $12)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRowContext(ctx, query,
		e.Title, e.Description, e.StartAt, e.EndAt, e.Place, e.Capacity, int64(e.Price), e.IsFree,
		e.ImagePath, e.CategoryID, e.CreatedBy, string(e.Status),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, id int64) (*event.Detail, error) {
	var (
		d     event.Detail
		cents int64
	)
	dest := append(listedDest(&d.Listed, &cents), &d.CreatorName)
	err := r.db.QueryRowContext(ctx, `
        SELECT `+listedColumns+`, u.name
        FROM events e
        JOIN categories c ON c.id = e.category_id
        JOIN users u ON u.id = e.created_by
        WHERE e.id = $1
    `, id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, event.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Price = event.Price(cents)
	return &d, nil
}

func (r *EventRepo) List(ctx context.Context, q event.Query) ([]event.Listed, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Status != nil {
		conds = append(conds, "e.status = "+arg(string(*q.Status)))
	}
	if q.Search != "" {
		p := arg(containsPattern(q.Search))
		conds = append(conds, "(e.title ILIKE "+p+" OR e.description ILIKE "+p+")")
	}
	if q.CategoryID != nil {
		conds = append(conds, "e.category_id = "+arg(*q.CategoryID))
	}
	if q.Weekday != nil {
		conds = append(conds, "EXTRACT(DOW FROM e.start_at AT TIME ZONE 'UTC') = "+arg(int(*q.Weekday)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events e `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "e.start_at ASC, e.id ASC"
	if q.NewestFirst {
		order = "e.start_at DESC, e.id DESC"
	}
	query := `
        SELECT ` + listedColumns + `
        FROM events e
        JOIN categories c ON c.id = e.category_id
        ` + where + `
        ORDER BY ` + order + `
        LIMIT ` + arg(q.Page.Limit()) + ` OFFSET ` + arg(q.Page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []event.Listed
	for rows.Next() {
		var (
			l     event.Listed
			cents int64
		)
		if err := rows.Scan(listedDest(&l, &cents)...); err != nil {
			return nil, 0, err
		}
		l.Price = event.Price(cents)
		res = append(res, l)
	}
	return res, total, rows.Err()
}

func (r *EventRepo) Update(ctx context.Context, e *event.Event) error {
	err := r.db.QueryRowContext(ctx, `
        UPDATE events
        SET title = $1, description = $2, start_at = $3, end_at = $4, place = $5, capacity = $6,
            price = $7::bigint / 100.0, is_free = $8, category_id = $9, updated_at = now()
        WHERE id = $10
        RETURNING updated_at
    `, e.Title, e.Description, e.StartAt, e.EndAt, e.Place, e.Capacity, int64(e.Price), e.IsFree,
		e.CategoryID, e.ID,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return event.ErrEventNotFound
	}
	return err
}

func (r *EventRepo) UpdateStatus(ctx context.Context, id int64, status event.Status) error {
	return r.exec(ctx, `UPDATE events SET status = $1 WHERE id = $2`, string(status), id)
}

func (r *EventRepo) SetImage(ctx context.Context, id int64, path *string) error {
	return r.exec(ctx, `UPDATE events SET image_path = $1, updated_at = now() WHERE id = $2`, path, id)
}

func (r *EventRepo) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM events WHERE id = $1`, id)
}

func (r *EventRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

func (r *EventRepo) IsRegistered(ctx context.Context, eventID, userID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
        SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)
    `, eventID, userID).Scan(&ok)
	return ok, err
}

func (r *EventRepo) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}
