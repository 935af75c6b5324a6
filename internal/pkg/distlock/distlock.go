// Package distlock provides a distributed lock on top of PostgreSQL
// advisory locks, used to keep delivery sweeps single-flight when several
// server instances share one database.
package distlock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
)

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// PGAdvisoryLock implements DistLock using PostgreSQL advisory locks.
//
// Advisory locks are session-scoped, so lock and unlock must run on the
// same backend session. Acquire therefore pins a dedicated *sql.Conn out
// of the pool and holds it until Release; running the two statements
// through the pooled *sql.DB would let them land on different
// connections, leaving the lock stranded on an idle session. The pinned
// session also gives crash-safety: if the holder dies, the connection
// closes and Postgres drops the lock.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
	conn   *sql.Conn
}

// NewPGAdvisoryLock creates a PG advisory lock with a deterministic lock ID
// derived from the given key string.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

// Acquire tries to acquire the advisory lock on a dedicated connection.
// Returns true if successful. Uses pg_try_advisory_lock which returns
// immediately (non-blocking). On contention or error the connection goes
// straight back to the pool.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	if l.conn != nil {
		return false, fmt.Errorf("advisory lock %d is already held", l.lockID)
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Release unlocks on the same pinned connection that acquired, then
// returns it to the pool. Without the lock held it is a no-op.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	conn := l.conn
	l.conn = nil
	defer conn.Close()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID).Scan(&released); err != nil {
		return err
	}
	if !released {
		// pg_advisory_unlock reports false instead of erroring when the
		// session does not hold the lock. Surface it; a swallowed false
		// here means the lock is stranded until the session dies.
		return fmt.Errorf("advisory lock %d was not held by this session", l.lockID)
	}
	return nil
}
