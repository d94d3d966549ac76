package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/google/uuid"
)

type requestRepository struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*domain.IntroductionRequest
}

// NewRequestRepository returns a process-local RequestRepository. A single
// mutex makes the active-pair check and the insert one atomic step.
func NewRequestRepository() repository.RequestRepository {
	return &requestRepository{requests: make(map[uuid.UUID]*domain.IntroductionRequest)}
}

func (r *requestRepository) Create(ctx context.Context, request *domain.IntroductionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activePairLocked(request.SenderID, request.ReceiverID) != nil {
		return domain.ErrDuplicateActiveRequest
	}
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	request.Version = 1
	r.requests[request.ID] = request.Clone()
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.IntroductionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return req.Clone(), nil
}

func (r *requestRepository) FindActivePair(ctx context.Context, senderID, receiverID uuid.UUID) (*domain.IntroductionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req := r.activePairLocked(senderID, receiverID); req != nil {
		return req.Clone(), nil
	}
	return nil, domain.ErrRequestNotFound
}

func (r *requestRepository) activePairLocked(senderID, receiverID uuid.UUID) *domain.IntroductionRequest {
	for _, req := range r.requests {
		if req.SenderID == senderID && req.ReceiverID == receiverID && req.Status.Active() {
			return req
		}
	}
	return nil
}

func (r *requestRepository) Update(ctx context.Context, request *domain.IntroductionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.requests[request.ID]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if stored.Version != request.Version {
		return domain.ErrConcurrentUpdate
	}
	request.Version++
	r.requests[request.ID] = request.Clone()
	return nil
}

func (r *requestRepository) List(ctx context.Context, q repository.RequestListQuery) ([]*domain.IntroductionRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.IntroductionRequest
	for _, req := range r.requests {
		owner := req.SenderID
		if q.Direction == repository.DirectionReceived {
			owner = req.ReceiverID
		}
		if owner != q.ProfileID {
			continue
		}
		if q.Status != "" && req.Status != q.Status {
			continue
		}
		if req.HiddenFor(q.ProfileID) && !q.IncludeHidden {
			continue
		}
		matched = append(matched, req)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	out := make([]*domain.IntroductionRequest, 0, end-start)
	for _, req := range matched[start:end] {
		out = append(out, req.Clone())
	}
	return out, total, nil
}

func (r *requestRepository) UpdateManyExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*domain.IntroductionRequest
	for _, req := range r.requests {
		if req.Status == domain.StatusPending && req.ExpiresAt.Before(now) {
			due = append(due, req)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ExpiresAt.Before(due[j].ExpiresAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	for _, req := range due {
		if err := req.Expire(now); err != nil {
			return 0, err
		}
		req.Version++
	}
	return len(due), nil
}
