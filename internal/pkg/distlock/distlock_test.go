package distlock

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
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

func TestPGAdvisoryLockAcquireRelease(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery("SELECT pg_advisory_unlock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	lock := NewPGAdvisoryLock(db, "sweep")
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if !acquired {
		t.Fatal("Acquire = false, want true")
	}
	// The unlock must run on the session that locked: Acquire pins a
	// connection and Release reuses it.
	if lock.conn == nil {
		t.Fatal("no connection pinned while the lock is held")
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if lock.conn != nil {
		t.Error("connection still pinned after Release")
	}
}

func TestPGAdvisoryLockContended(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	// First try loses to another instance; no unlock may be issued for a
	// lock we never held. The retry then wins.
	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))
	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery("SELECT pg_advisory_unlock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	lock := NewPGAdvisoryLock(db, "sweep")
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if acquired {
		t.Fatal("Acquire = true while the lock is held elsewhere")
	}
	if lock.conn != nil {
		t.Error("connection pinned after losing the lock")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("Release of an unheld lock error: %v, want no-op", err)
	}

	acquired, err = lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("retry Acquire error: %v", err)
	}
	if !acquired {
		t.Fatal("retry Acquire = false once the lock is free")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("Release error: %v", err)
	}
}

func TestPGAdvisoryLockDoubleAcquire(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery("SELECT pg_advisory_unlock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	lock := NewPGAdvisoryLock(db, "sweep")
	ctx := context.Background()

	if _, err := lock.Acquire(ctx); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if _, err := lock.Acquire(ctx); err == nil {
		t.Error("second Acquire while held succeeded, want error")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("Release error: %v", err)
	}
}

func TestPGAdvisoryLockReleaseNotHeldBySession(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	// Postgres reports false, not an error, when the session does not
	// hold the lock. Release must turn that into an error instead of
	// leaving the lock silently stranded.
	mock.ExpectQuery("SELECT pg_advisory_unlock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(false))

	lock := NewPGAdvisoryLock(db, "sweep")
	ctx := context.Background()

	if _, err := lock.Acquire(ctx); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if err := lock.Release(ctx); err == nil {
		t.Error("Release error = nil, want error when unlock reports false")
	}
}
