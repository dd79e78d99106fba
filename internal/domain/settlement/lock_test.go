package settlement

import (
	"context"
	"database/sql"
	"testing"
)

func TestAdvisoryLockHeldLocallyIsNotReacquired(t *testing.T) {
	l := NewAdvisoryLock(nil)
	l.conn = &sql.Conn{}

	acquired, err := l.TryLock(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Fatal("a lock held by this process must not be acquired again")
	}
}

func TestAdvisoryLockUnlockWithoutLockIsNoop(t *testing.T) {
	l := NewAdvisoryLock(nil)

	// Must not panic or touch the pool when nothing is held.
	l.Unlock(context.Background())

	if l.conn != nil {
		t.Fatal("no connection should be pinned")
	}
}
