package helpers

import (
	"strconv"

	"github.com/alumnisphere/api/internal/app/models/dto"
	"github.com/gin-gonic/gin"
)

// Pages are 1-based. Sizes outside (0, MaxPageSize] fall back to a default.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1
)

// Page sizes per listing.
const (
	PostPageSize    = 10
	ProfilePageSize = 10
	EventPageSize   = 50
	SurveyPageSize  = 5
	MessagePageSize = 50
)

func validSize(size int) bool { return size > 0 && size <= MaxPageSize }

func normalize(page, size, fallback int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if !validSize(size) {
		size = fallback
	}
	return page, size
}

// CalculateOffsetLimit converts a page into SQL OFFSET/LIMIT.
func CalculateOffsetLimit(page, size int) (offset uint64, limit uint64) {
	page, size = normalize(page, size, DefaultPageSize)
	return uint64((page - 1) * size), uint64(size)
}

// NewPaginationInfo describes one page of totalItems. An empty result still
// has one (empty) first page, and a page past the end reports the last page.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	page, size = normalize(page, size, DefaultPageSize)

	totalPages := int((totalItems + int64(size) - 1) / int64(size))
	if totalItems <= 0 && page == DefaultPage {
		totalPages = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams reads ?page= and ?size=. Unusable values are
// replaced rather than rejected.
func ParsePaginationParams(c *gin.Context, defaultSize int) (page, size int) {
	if !validSize(defaultSize) {
		defaultSize = DefaultPageSize
	}
	page, _ = strconv.Atoi(c.Query("page"))
	size, _ = strconv.Atoi(c.Query("size"))
	return normalize(page, size, defaultSize)
}
