package notification

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Store records idempotency keys. Reserve is an atomic check-and-set: it
// claims key for one delivery, or reports the existing claim. The returned
// result is nil while the claimed delivery has not completed.
type Store interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, *Result, error)
	Complete(ctx context.Context, key string, res *Result, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type memoryEntry struct {
	result  *Result
	expires time.Time
}

// MemoryStore keeps keys in process memory. An expired key is ignored when
// it is looked up; Cleanup drops the rest.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, *Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expires) {
		if e.result == nil {
			return false, nil, nil
		}
		res := *e.result
		return false, &res, nil
	}
	s.entries[key] = memoryEntry{expires: now.Add(ttl)}
	return true, nil, nil
}

func (s *MemoryStore) Complete(_ context.Context, key string, res *Result, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *res
	s.entries[key] = memoryEntry{result: &stored, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports the number of live keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, e := range s.entries {
		if now.Before(e.expires) {
			n++
		}
	}
	return n
}

// Cleanup removes expired keys and reports how many it removed.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// ScheduleCleanup runs Cleanup on sched every interval.
func (s *MemoryStore) ScheduleCleanup(sched gocron.Scheduler, every time.Duration) (gocron.Job, error) {
	return sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if n := s.Cleanup(); n > 0 {
				log.Printf("idempotency_cleanup removed=%d", n)
			}
		}),
		gocron.WithName("idempotency-key-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
