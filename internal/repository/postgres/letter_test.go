package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/futureme/futureme/internal/domain"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		db.Close()
	}
	return db, mock, cleanup
}

func TestLetterRepoCreate(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	createdAt := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO letters").
		WithArgs(sqlmock.AnyArg(), "Ann", "Lee", "ann@x.com",
			time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), "hi").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	repo := NewLetterRepo(db)
	l := &domain.Letter{
		FirstName:  "Ann",
		LastName:   "Lee",
		Email:      "ann@x.com",
		DeliveryAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Body:       "hi",
	}
	id, err := repo.Create(context.Background(), l)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if id == "" || id != l.ID {
		t.Errorf("Create id = %q, letter.ID = %q", id, l.ID)
	}
	if !l.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt not populated from RETURNING")
	}
}

func TestLetterRepoFindDue(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	asOf := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "delivery_at", "letter_text", "sent", "created_at",
	}).
		AddRow("id-1", "Ann", "Lee", "ann@x.com", asOf.Add(-time.Hour), "older", false, asOf.Add(-48*time.Hour)).
		AddRow("id-2", "Bob", "Ray", "bob@x.com", asOf, "due now", false, asOf.Add(-24*time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM letters").
		WithArgs(asOf, 100).
		WillReturnRows(rows)

	repo := NewLetterRepo(db)
	due, err := repo.FindDue(context.Background(), asOf, 0)
	if err != nil {
		t.Fatalf("FindDue error: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("FindDue returned %d letters, want 2", len(due))
	}
	if due[0].ID != "id-1" || due[1].ID != "id-2" {
		t.Errorf("FindDue order = %q, %q; want oldest first", due[0].ID, due[1].ID)
	}
	if due[1].Body != "due now" {
		t.Errorf("letter body = %q", due[1].Body)
	}
}

func TestLetterRepoFindDueEmpty(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	asOf := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM letters").
		WithArgs(asOf, 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "delivery_at", "letter_text", "sent", "created_at",
		}))

	repo := NewLetterRepo(db)
	due, err := repo.FindDue(context.Background(), asOf, 50)
	if err != nil {
		t.Fatalf("FindDue error: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("FindDue returned %d letters, want 0", len(due))
	}
}

func TestLetterRepoMarkSent(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("UPDATE letters SET sent").
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second call hits zero rows and must still succeed.
	mock.ExpectExec("UPDATE letters SET sent").
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewLetterRepo(db)
	if err := repo.MarkSent(context.Background(), "id-1"); err != nil {
		t.Fatalf("MarkSent error: %v", err)
	}
	if err := repo.MarkSent(context.Background(), "id-1"); err != nil {
		t.Errorf("repeated MarkSent error: %v, want nil", err)
	}
}
