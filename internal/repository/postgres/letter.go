package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/futureme/futureme/internal/domain"
)

// LetterRepo implements letter.Repository against PostgreSQL.
type LetterRepo struct{ db *sql.DB }

// NewLetterRepo creates a Postgres-backed letter repository.
func NewLetterRepo(db *sql.DB) *LetterRepo { return &LetterRepo{db: db} }

func (r *LetterRepo) Create(ctx context.Context, l *domain.Letter) (string, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO letters
			(id, first_name, last_name, email, delivery_at, letter_text, sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
		RETURNING created_at
	`, l.ID, l.FirstName, l.LastName, l.Email, l.DeliveryAt.UTC(), l.Body).Scan(&l.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("create letter: %w", err)
	}
	return l.ID, nil
}

// FindDue returns unsent letters due at or before asOf, oldest first. The
// open-ended predicate means letters missed during downtime are picked up
// on the next pass instead of being lost.
func (r *LetterRepo) FindDue(ctx context.Context, asOf time.Time, limit int) ([]domain.Letter, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, email, delivery_at, letter_text, sent, created_at
		FROM letters
		WHERE sent = FALSE AND delivery_at <= $1
		ORDER BY delivery_at ASC
		LIMIT $2
	`, asOf.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("find due letters: %w", err)
	}
	defer rows.Close()

	var out []domain.Letter
	for rows.Next() {
		var l domain.Letter
		if err := rows.Scan(
			&l.ID, &l.FirstName, &l.LastName, &l.Email,
			&l.DeliveryAt, &l.Body, &l.Sent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan letter: %w", err)
		}
		l.DeliveryAt = l.DeliveryAt.UTC()
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate letters: %w", err)
	}
	return out, nil
}

// MarkSent flips the sent flag. Marking an already-sent letter affects zero
// rows and still succeeds, which keeps redelivery after a crashed tick a
// harmless no-op at the store level.
func (r *LetterRepo) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE letters SET sent = TRUE WHERE id = $1 AND sent = FALSE
	`, id)
	if err != nil {
		return fmt.Errorf("mark letter sent: %w", err)
	}
	return nil
}

func (r *LetterRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
