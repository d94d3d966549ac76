package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/lock"
	"github.com/gdugdh24/introductions-backend/internal/infrastructure/logging"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/gdugdh24/introductions-backend/internal/repository/memory"
	"github.com/google/uuid"
)

var created = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo repository.RequestRepository, n int, ttl time.Duration) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		r := &domain.IntroductionRequest{
			ID:         uuid.New(),
			SenderID:   uuid.New(),
			ReceiverID: uuid.New(),
			Status:     domain.StatusPending,
			CreatedAt:  created,
			UpdatedAt:  created,
			ExpiresAt:  created.Add(ttl),
		}
		if err := repo.Create(context.Background(), r); err != nil {
			t.Fatalf("create request: %v", err)
		}
		ids[i] = r.ID
	}
	return ids
}

func TestSweepOnceExpiresOverdueInBatches(t *testing.T) {
	repo := memory.NewRequestRepository()
	overdue := seed(t, repo, 7, domain.DefaultRequestTTL)
	fresh := seed(t, repo, 2, 60*24*time.Hour)

	at := created.Add(domain.DefaultRequestTTL + time.Minute)
	s := NewSweeper(repo, nil, Config{BatchSize: 3}, logging.Discard()).
		WithClock(func() time.Time { return at })

	n, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if n != len(overdue) {
		t.Fatalf("expired %d, want %d", n, len(overdue))
	}

	for _, id := range overdue {
		r, _ := repo.GetByID(context.Background(), id)
		if r.Status != domain.StatusExpired || !r.IsRead {
			t.Errorf("request %s: status %s, read %v", id, r.Status, r.IsRead)
		}
	}
	for _, id := range fresh {
		r, _ := repo.GetByID(context.Background(), id)
		if r.Status != domain.StatusPending {
			t.Errorf("fresh request %s became %s", id, r.Status)
		}
	}

	n, err = s.SweepOnce(context.Background())
	if err != nil || n != 0 {
		t.Errorf("second sweep = %d, %v; want 0", n, err)
	}
}

func TestSweepOnceLeavesRespondedRequests(t *testing.T) {
	repo := memory.NewRequestRepository()
	ids := seed(t, repo, 1, time.Hour)
	r, _ := repo.GetByID(context.Background(), ids[0])
	if _, err := r.Accept(r.ReceiverID, "", domain.ContactInfo{}, created); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := repo.Update(context.Background(), r); err != nil {
		t.Fatalf("Update: %v", err)
	}

	s := NewSweeper(repo, nil, Config{}, logging.Discard()).
		WithClock(func() time.Time { return created.Add(48 * time.Hour) })
	if n, err := s.SweepOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("SweepOnce = %d, %v", n, err)
	}
}

func TestSweepOnceSkipsWhenLockHeld(t *testing.T) {
	repo := memory.NewRequestRepository()
	seed(t, repo, 2, time.Hour)
	locker := lock.NewLocalLocker()
	s := NewSweeper(repo, locker, Config{}, logging.Discard()).
		WithClock(func() time.Time { return created.Add(2 * time.Hour) })

	release, ok, err := locker.TryLock(context.Background(), lockKey, time.Minute)
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	if n, err := s.SweepOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("sweep under foreign lock = %d, %v", n, err)
	}

	if err := release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if n, err := s.SweepOnce(context.Background()); err != nil || n != 2 {
		t.Fatalf("sweep after release = %d, %v", n, err)
	}
	// The sweeper gives its own lock back.
	if _, ok, _ := locker.TryLock(context.Background(), lockKey, time.Minute); !ok {
		t.Error("sweeper kept the lock")
	}
}

type failingLocker struct{}

func (failingLocker) TryLock(context.Context, string, time.Duration) (lock.Release, bool, error) {
	return nil, false, errors.New("redis down")
}

func TestSweepOnceReportsLockErrors(t *testing.T) {
	s := NewSweeper(memory.NewRequestRepository(), failingLocker{}, Config{}, logging.Discard())
	if _, err := s.SweepOnce(context.Background()); err == nil {
		t.Fatal("expected lock error")
	}
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	repo := memory.NewRequestRepository()
	ids := seed(t, repo, 1, time.Hour)
	s := NewSweeper(repo, nil, Config{Interval: time.Millisecond}, logging.Discard()).
		WithClock(func() time.Time { return created.Add(2 * time.Hour) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		r, err := repo.GetByID(context.Background(), ids[0])
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if r.Status == domain.StatusExpired {
			break
		}
		select {
		case <-deadline:
			t.Fatal("request never expired")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
