package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/s8r-framework/s8r/pkg/ports"
)

// lockTTL bounds how long a distributed lock outlives a crashed holder.
const lockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// lockTable serializes operations per entity ID. Entries are reference
// counted so the table does not grow with every ID ever touched.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*lockEntry)}
}

func (t *lockTable) acquire(id string) *lockEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.locks[id]
	if !exists {
		entry = &lockEntry{}
		t.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (t *lockTable) release(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(t.locks, id)
	}
}

// withLock runs fn while holding the in-process lock for id, plus the
// distributed lock when a locker is configured.
func (t *lockTable) withLock(ctx context.Context, id string, locker ports.DistributedLocker, logger *slog.Logger, fn func(context.Context) error) error {
	entry := t.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		t.release(id)
	}()

	if locker != nil {
		unlock, err := locker.Lock(ctx, id, lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				logger.Warn("failed to release distributed lock (will expire via TTL)",
					"entity_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
