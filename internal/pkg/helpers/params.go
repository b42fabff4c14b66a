package helpers

import (
	"strconv"
	"strings"

	"github.com/alumnisphere/api/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

// ParseIDParam reads a positive int64 path parameter.
func ParseIDParam(c *gin.Context, name string) (int64, error) {
	return parsePositiveID(c.Param(name), name)
}

// ParseIDQuery reads a positive int64 query parameter. ok is false when the
// parameter is absent.
func ParseIDQuery(c *gin.Context, name string) (id int64, ok bool, err error) {
	raw, present := c.GetQuery(name)
	if !present || strings.TrimSpace(raw) == "" {
		return 0, false, nil
	}
	id, err = parsePositiveID(raw, name)
	return id, true, err
}

func parsePositiveID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(name, "invalid "+name)
	}
	return id, nil
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to value or the zero value.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
