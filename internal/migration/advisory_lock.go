package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"
)

const lockPollInterval = 500 * time.Millisecond

var migrationLockKey = lockKey("metertrack.schema_migrations")

// lockKey maps a lock name onto the bigint space of pg advisory locks.
func lockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

// sessionLock is a postgres session-level advisory lock. It pins one pool
// connection, since the lock belongs to the session that took it.
type sessionLock struct {
	conn *sql.Conn
	key  int64
}

// acquireSessionLock waits until the lock is free or ctx ends, so
// concurrent `migrate` runs queue behind each other instead of failing.
func acquireSessionLock(ctx context.Context, db *sql.DB, key int64) (*sessionLock, error) {
	if db == nil {
		return nil, errors.New("advisory lock requires database handle")
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve lock connection: %w", err)
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		var locked bool
		if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&locked); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("acquire advisory lock: %w", err)
		}
		if locked {
			return &sessionLock{conn: conn, key: key}, nil
		}

		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil, fmt.Errorf("wait for migration lock: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release unlocks and returns the pinned connection to the pool.
func (l *sessionLock) Release(ctx context.Context) error {
	defer l.conn.Close()

	var released bool
	if err := l.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.key).Scan(&released); err != nil {
		return fmt.Errorf("release advisory lock: %w", err)
	}
	if !released {
		return errors.New("advisory lock was not held by this session")
	}
	return nil
}
