package usecase

import (
	"math"

	"github.com/gdugdh24/introductions-backend/internal/domain"
)

// MaxOffset bounds how many rows a page request may skip.
const MaxOffset = math.MaxInt32

// PageOffset returns how many rows precede the 1-based page, or a
// validation error when the offset would pass MaxOffset.
func PageOffset(page, pageSize int) (int, error) {
	if page < 1 {
		return 0, domain.NewValidationError("page", "must be at least 1")
	}
	if pageSize < 1 {
		return 0, domain.NewValidationError("page_size", "must be at least 1")
	}
	if page-1 > MaxOffset/pageSize {
		return 0, domain.NewValidationError("page", "is too large")
	}
	return (page - 1) * pageSize, nil
}
