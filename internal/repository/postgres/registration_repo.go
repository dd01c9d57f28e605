package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventplanner/internal/domain/access"
	"eventplanner/internal/domain/event"
	"eventplanner/internal/domain/page"
	"eventplanner/internal/domain/registration"
)

const registrationColumns = `
        r.id, r.user_id, r.event_id, r.created_at,
        e.title, e.start_at, e.status, c.name, u.name, u.email`

const registrationJoins = `
        FROM registrations r
        JOIN events e ON e.id = r.event_id
        JOIN categories c ON c.id = e.category_id
        JOIN users u ON u.id = r.user_id`

type RegistrationRepo struct {
	db *sql.DB
}

func NewRegistrationRepo(db *sql.DB) *RegistrationRepo {
	return &RegistrationRepo{db: db}
}

// lockEvent takes the event row lock that serializes every register and
// unregister for that event, and rejects archived events.
func lockEvent(ctx context.Context, tx *sql.Tx, eventID int64) (capacity int, err error) {
	var status string
	err = tx.QueryRowContext(ctx, `SELECT capacity, status FROM events WHERE id = $1 FOR UPDATE`, eventID).
		Scan(&capacity, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, event.ErrEventNotFound
	}
	if err != nil {
		return 0, err
	}
	if event.Status(status) == event.StatusArchived {
		return 0, registration.ErrEventArchived
	}
	return capacity, nil
}

func (r *RegistrationRepo) Register(ctx context.Context, userID, eventID int64) (*registration.Registration, error) {
	var reg *registration.Registration
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		capacity, err := lockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}

		var taken int
		var exists bool
		err = tx.QueryRowContext(ctx, `
            SELECT COUNT(*), COALESCE(bool_or(user_id = $2), false)
            FROM registrations WHERE event_id = $1
        `, eventID, userID).Scan(&taken, &exists)
		if err != nil {
			return err
		}
		if taken >= capacity {
			return registration.ErrEventFull
		}
		if exists {
			return registration.ErrAlreadyRegistered
		}

		reg = &registration.Registration{UserID: userID, EventID: eventID}
		err = tx.QueryRowContext(ctx, `
            INSERT INTO registrations (user_id, event_id)
            VALUES ($1, $2)
            RETURNING id, created_at
        `, userID, eventID).Scan(&reg.ID, &reg.CreatedAt)
		switch {
		case isUniqueViolation(err):
			return registration.ErrAlreadyRegistered
		case isForeignKeyViolation(err):
			// The account was deleted after its token was issued.
			return access.ErrUnauthenticated
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *RegistrationRepo) Unregister(ctx context.Context, userID, eventID int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := lockEvent(ctx, tx, eventID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return registration.ErrNotRegistered
		}
		return nil
	})
}

// inTx commits when fn succeeds. Serialization failures and deadlocks come
// back as registration.ErrContention.
func (r *RegistrationRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return contention(err)
	}
	return contention(tx.Commit())
}

func contention(err error) error {
	if err != nil && isContention(err) {
		return fmt.Errorf("%w: %v", registration.ErrContention, err)
	}
	return err
}

func (r *RegistrationRepo) ListByUser(ctx context.Context, userID int64) ([]registration.Listed, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+registrationColumns+registrationJoins+`
        WHERE r.user_id = $1
        ORDER BY r.created_at DESC, r.id DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	return scanRegistrations(rows)
}

func (r *RegistrationRepo) List(ctx context.Context, req page.Request) ([]registration.Listed, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+registrationColumns+registrationJoins+`
        ORDER BY r.created_at DESC, r.id DESC
        LIMIT $1 OFFSET $2
    `, req.Limit(), req.Offset())
	if err != nil {
		return nil, 0, err
	}
	res, err := scanRegistrations(rows)
	return res, total, err
}

func scanRegistrations(rows *sql.Rows) ([]registration.Listed, error) {
	defer rows.Close()
	var res []registration.Listed
	for rows.Next() {
		var l registration.Listed
		err := rows.Scan(&l.ID, &l.UserID, &l.EventID, &l.CreatedAt,
			&l.EventTitle, &l.EventStartAt, &l.EventStatus, &l.CategoryName, &l.UserName, &l.UserEmail)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}
