package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
	"github.com/gdugdh24/introductions-backend/internal/usecase"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	CandidateCap    int
	DefaultPageSize int
	MaxPageSize     int
	FallbackDefault bool
}

type SearchUseCase struct {
	profileRepo repository.ProfileRepository
	validate    *validator.Validate
	cfg         Config
	logger      *slog.Logger
}

func NewSearchUseCase(profileRepo repository.ProfileRepository, cfg Config, logger *slog.Logger) *SearchUseCase {
	return &SearchUseCase{
		profileRepo: profileRepo,
		validate:    usecase.NewValidator(),
		cfg:         cfg,
		logger:      logger,
	}
}

type Item struct {
	Profile *domain.Profile              `json:"profile"`
	Score   int                          `json:"score"`
	Factors []domain.CompatibilityFactor `json:"factors"`
}

type Result struct {
	Items        []Item  `json:"items"`
	Total        int     `json:"total"`
	Page         int     `json:"page"`
	PageSize     int     `json:"page_size"`
	Sort         SortKey `json:"sort"`
	UsedFallback bool    `json:"used_fallback"`
}

// Search runs the exact query and, only when it matches nothing and
// fallback is on, the relaxed one.
func (uc *SearchUseCase) Search(ctx context.Context, actor domain.Actor, c Criteria) (*Result, error) {
	if err := uc.normalize(&c); err != nil {
		return nil, err
	}
	viewer, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return nil, err
	}

	base := eligibilityFilter(viewer)
	exact := repository.And(base, criteriaFilter(&c, false))
	var relaxed *repository.Filter
	if *c.Fallback {
		r := repository.And(base, criteriaFilter(&c, true))
		relaxed = &r
	}
	return uc.run(ctx, viewer, exact, relaxed, c.Page, c.PageSize, c.Sort)
}

// QuickSearch matches free text against display name, location, education
// and occupation. The whole query is tried first; if nothing matches, any
// single word may match.
func (uc *SearchUseCase) QuickSearch(ctx context.Context, actor domain.Actor, query string, page, pageSize int) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("q", "is required")
	}
	if len(query) > 200 {
		return nil, domain.NewValidationError("q", "must be at most 200")
	}
	c := Criteria{Page: page, PageSize: pageSize, Sort: SortCompatibility}
	if err := uc.normalize(&c); err != nil {
		return nil, err
	}
	viewer, err := usecase.ActorProfile(ctx, uc.profileRepo, actor)
	if err != nil {
		return nil, err
	}

	base := eligibilityFilter(viewer)
	exact := repository.And(base, textFilter(query))
	var fuzzy *repository.Filter
	if tokens := strings.Fields(query); len(tokens) > 1 {
		parts := make([]repository.Filter, 0, len(tokens))
		for _, t := range tokens {
			parts = append(parts, textFilter(t))
		}
		f := repository.And(base, repository.Or(parts...))
		fuzzy = &f
	}
	return uc.run(ctx, viewer, exact, fuzzy, c.Page, c.PageSize, c.Sort)
}

var quickSearchFields = []repository.Field{
	repository.FieldDisplayName,
	repository.FieldCountry,
	repository.FieldCity,
	repository.FieldEducation,
	repository.FieldOccupation,
}

func textFilter(s string) repository.Filter {
	parts := make([]repository.Filter, len(quickSearchFields))
	for i, f := range quickSearchFields {
		parts[i] = repository.Contains(f, s)
	}
	return repository.Or(parts...)
}

func (uc *SearchUseCase) run(
	ctx context.Context,
	viewer *domain.Profile,
	exact repository.Filter,
	fallback *repository.Filter,
	page, pageSize int,
	sortKey SortKey,
) (*Result, error) {
	filter, total, usedFallback, err := uc.plan(ctx, exact, fallback)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Items:        []Item{},
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		Sort:         sortKey,
		UsedFallback: usedFallback,
	}
	if total == 0 {
		return result, nil
	}

	offset := (page - 1) * pageSize
	var ranked []Scored
	if order, ok := storeOrder(sortKey); ok {
		candidates, err := uc.profileRepo.FindMany(ctx, filter, order, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("load page: %w", err)
		}
		ranked = Rank(viewer, candidates, sortKey)
	} else {
		// Compatibility is computed here, so only the first CandidateCap
		// matches are ranked and the total is clamped to match.
		candidates, err := uc.profileRepo.FindMany(ctx, filter, nil, 0, uc.cfg.CandidateCap)
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}
		if uc.cfg.CandidateCap > 0 {
			result.Total = min(total, uc.cfg.CandidateCap)
		}
		ranked = paginate(Rank(viewer, candidates, sortKey), offset, pageSize)
	}
	for _, s := range ranked {
		result.Items = append(result.Items, Item{
			Profile: s.Profile.Public(),
			Score:   s.Compatibility.Total,
			Factors: s.Compatibility.Factors,
		})
	}

	uc.logger.Debug("search",
		"viewer_id", viewer.ID,
		"total", total,
		"returned", len(result.Items),
		"sort", sortKey,
		"used_fallback", usedFallback,
	)
	return result, nil
}

// plan picks the filter to page over. The fallback runs only when the exact
// count is exactly zero.
func (uc *SearchUseCase) plan(ctx context.Context, exact repository.Filter, fallback *repository.Filter) (repository.Filter, int, bool, error) {
	n, err := uc.profileRepo.Count(ctx, exact)
	if err != nil {
		return exact, 0, false, fmt.Errorf("count exact: %w", err)
	}
	if n > 0 || fallback == nil {
		return exact, n, false, nil
	}

	n, err = uc.profileRepo.Count(ctx, *fallback)
	if err != nil {
		return exact, 0, false, fmt.Errorf("count relaxed: %w", err)
	}
	if n == 0 {
		return exact, 0, false, nil
	}
	return *fallback, n, true, nil
}

func (uc *SearchUseCase) normalize(c *Criteria) error {
	if err := usecase.Validate(uc.validate, c); err != nil {
		return err
	}
	if c.AgeMin != nil && c.AgeMax != nil && *c.AgeMin > *c.AgeMax {
		return domain.NewValidationError("age_min", "must not exceed age_max")
	}
	if c.HeightMin != nil && c.HeightMax != nil && *c.HeightMin > *c.HeightMax {
		return domain.NewValidationError("height_min", "must not exceed height_max")
	}
	if c.Page == 0 {
		c.Page = 1
	}
	if c.PageSize == 0 {
		c.PageSize = uc.cfg.DefaultPageSize
	}
	if c.PageSize > uc.cfg.MaxPageSize {
		return domain.NewValidationError("page_size", fmt.Sprintf("must be at most %d", uc.cfg.MaxPageSize))
	}
	if _, err := usecase.PageOffset(c.Page, c.PageSize); err != nil {
		return err
	}
	if c.Sort == "" {
		c.Sort = SortCompatibility
	}
	if c.Fallback == nil {
		fallback := uc.cfg.FallbackDefault
		c.Fallback = &fallback
	}
	return nil
}
