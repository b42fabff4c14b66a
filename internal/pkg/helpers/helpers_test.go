package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func contextWithQuery(query string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestCalculateOffsetLimit(t *testing.T) {
	tests := []struct {
		page, size int
		offset     uint64
		limit      uint64
	}{
		{page: 1, size: 10, offset: 0, limit: 10},
		{page: 3, size: 5, offset: 10, limit: 5},
		{page: 0, size: 0, offset: 0, limit: DefaultPageSize},
		{page: 2, size: 1000, offset: DefaultPageSize, limit: DefaultPageSize},
	}
	for _, tt := range tests {
		offset, limit := CalculateOffsetLimit(tt.page, tt.size)
		if offset != tt.offset || limit != tt.limit {
			t.Errorf("CalculateOffsetLimit(%d, %d) = (%d, %d), want (%d, %d)", tt.page, tt.size, offset, limit, tt.offset, tt.limit)
		}
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(27, 2, 10)
	if info.TotalPages != 3 || info.CurrentPage != 2 || info.PageSize != 10 || info.TotalItems != 27 {
		t.Errorf("unexpected info %+v", info)
	}

	empty := NewPaginationInfo(0, 1, 10)
	if empty.TotalPages != 1 {
		t.Errorf("empty first page TotalPages = %d, want 1", empty.TotalPages)
	}

	clamped := NewPaginationInfo(5, 9, 5)
	if clamped.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want clamped to 1", clamped.CurrentPage)
	}
}

func TestParsePaginationParams(t *testing.T) {
	page, size := ParsePaginationParams(contextWithQuery(""), EventPageSize)
	if page != 1 || size != EventPageSize {
		t.Errorf("defaults = (%d, %d)", page, size)
	}

	page, size = ParsePaginationParams(contextWithQuery("page=4&size=20"), SurveyPageSize)
	if page != 4 || size != 20 {
		t.Errorf("explicit = (%d, %d)", page, size)
	}

	page, size = ParsePaginationParams(contextWithQuery("page=-1&size=abc"), SurveyPageSize)
	if page != 1 || size != SurveyPageSize {
		t.Errorf("invalid = (%d, %d)", page, size)
	}
}

func TestParseIDQuery(t *testing.T) {
	if _, ok, err := ParseIDQuery(contextWithQuery(""), "user_id"); ok || err != nil {
		t.Errorf("absent param: ok=%v err=%v", ok, err)
	}
	if id, ok, err := ParseIDQuery(contextWithQuery("user_id=7"), "user_id"); !ok || err != nil || id != 7 {
		t.Errorf("valid param: id=%d ok=%v err=%v", id, ok, err)
	}
	if _, ok, err := ParseIDQuery(contextWithQuery("user_id=abc"), "user_id"); !ok || err == nil {
		t.Errorf("invalid param: ok=%v err=%v", ok, err)
	}
}

func TestParseDuration(t *testing.T) {
	if got := ParseDuration("90m", time.Hour); got != 90*time.Minute {
		t.Errorf("ParseDuration = %v", got)
	}
	for _, in := range []string{"nonsense", "", "  ", "-5s", "0"} {
		if got := ParseDuration(in, time.Hour); got != time.Hour {
			t.Errorf("ParseDuration(%q) = %v, want fallback", in, got)
		}
	}
}
