package settlement

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// lockKey identifies the settlement job in pg_advisory_lock space.
const lockKey int64 = 427002

// Locker serializes settlement runs across processes.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context)
}

// AdvisoryLock is a session-level Postgres advisory lock held on a
// dedicated connection. The lock dies with the session, so a crashed
// holder never blocks the next run. One AdvisoryLock is shared by the
// periodic worker and the manual-trigger endpoint, so the held
// connection is guarded by a mutex.
type AdvisoryLock struct {
	db *sqlx.DB

	mu   sync.Mutex
	conn *sql.Conn
}

func NewAdvisoryLock(db *sqlx.DB) *AdvisoryLock {
	return &AdvisoryLock{db: db}
}

// TryLock attempts the lock without blocking. Returns false when
// another process, or another caller in this process, holds it.
func (l *AdvisoryLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockKey).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	// The lock is bound to this session; keep the connection pinned
	// until Unlock.
	l.conn = conn
	return true, nil
}

// Unlock releases the lock and returns the pinned connection to the
// pool. Safe to call only after a successful TryLock.
func (l *AdvisoryLock) Unlock(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return
	}
	_, _ = l.conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, lockKey)
	l.conn.Close()
	l.conn = nil
}
