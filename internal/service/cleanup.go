package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"planvault/internal/storage"
)

// CleanupQueue collects object keys whose remote destroy failed so a
// background sweep can retry them. The queue is in-process only: a restart
// loses pending keys, which is why every enqueue is also logged.
type CleanupQueue struct {
	mu   sync.Mutex
	keys []string
}

// NewCleanupQueue returns an empty queue.
func NewCleanupQueue() *CleanupQueue {
	return &CleanupQueue{}
}

// Enqueue records an orphaned object key for a later destroy attempt.
func (q *CleanupQueue) Enqueue(key string) {
	q.mu.Lock()
	q.keys = append(q.keys, key)
	q.mu.Unlock()

	logEvent("cleanup_enqueued", map[string]any{"object_key": key})
}

// Len reports the number of pending keys.
func (q *CleanupQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys)
}

func (q *CleanupQueue) drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	keys := q.keys
	q.keys = nil
	return keys
}

// Sweep retries every pending destroy once. Keys that fail again are
// re-queued for the next sweep.
func (q *CleanupQueue) Sweep(ctx context.Context, store storage.Storage) {
	for _, key := range q.drain() {
		callCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		err := store.Delete(callCtx, key)
		cancel()
		if err != nil {
			logEvent("cleanup_retry_failed", map[string]any{"object_key": key, "error": err.Error()})
			q.mu.Lock()
			q.keys = append(q.keys, key)
			q.mu.Unlock()
			continue
		}
		logEvent("cleanup_destroyed", map[string]any{"object_key": key})
	}
}

// Run sweeps the queue on a ticker until ctx is done.
func (q *CleanupQueue) Run(ctx context.Context, store storage.Storage, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			q.Sweep(ctx, store)
		}
	}
}

// logEvent emits one JSON log line, matching the migration package's format.
func logEvent(event string, fields map[string]any) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "info",
		"component": "documents",
		"event":     event,
	}
	if _, ok := fields["error"]; ok {
		entry["level"] = "warn"
	}
	for k, v := range fields {
		entry[k] = v
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
