package memory

import (
	"cmp"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/google/uuid"
)

type profileRepository struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*domain.Profile
	order    []uuid.UUID
}

// NewProfileRepository returns a process-local ProfileRepository. Profiles
// are copied on the way in and out.
func NewProfileRepository() repository.ProfileRepository {
	return &profileRepository{profiles: make(map[uuid.UUID]*domain.Profile)}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.profiles {
		if existing.UserID == profile.UserID {
			return domain.ErrProfileAlreadyExists
		}
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	r.profiles[profile.ID] = profile.Clone()
	r.order = append(r.order, profile.ID)
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.profiles {
		if p.UserID == userID {
			return p.Clone(), nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[profile.ID]; !ok {
		return domain.ErrProfileNotFound
	}
	r.profiles[profile.ID] = profile.Clone()
	return nil
}

func (r *profileRepository) FindMany(ctx context.Context, filter repository.Filter, order []repository.Order, skip, limit int) ([]*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Profile
	for _, id := range r.order {
		if p := r.profiles[id]; Matches(filter, p) {
			matched = append(matched, p)
		}
	}
	if len(order) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i], matched[j], order)
		})
	}

	start := min(max(skip, 0), len(matched))
	end := len(matched)
	if limit > 0 {
		end = min(start+limit, end)
	}
	out := make([]*domain.Profile, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, p.Clone())
	}
	return out, nil
}

// less compares two profiles term by term. Equal profiles keep their
// insertion order through the stable sort.
func less(a, b *domain.Profile, order []repository.Order) bool {
	for _, o := range order {
		c := compareField(fieldValue(a, o.Field), fieldValue(b, o.Field))
		if c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compareField(a, b any) int {
	switch av := a.(type) {
	case int:
		if bv, ok := b.(int); ok {
			return cmp.Compare(av, bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return 0
}

func (r *profileRepository) Count(ctx context.Context, filter repository.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, id := range r.order {
		if Matches(filter, r.profiles[id]) {
			n++
		}
	}
	return n, nil
}
