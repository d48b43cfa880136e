package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jdon/coffeechat/internal/domain/coffeechat"
)

// Pagination defaults; pages are zero-based.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	DefaultPage     = 0
)

// PageLimits bounds the page size accepted from clients
type PageLimits struct {
	DefaultSize int
	MaxSize     int
}

// NormalizePageRequest clamps a page request: negative pages become 0, absurdly large ones are
// capped, a missing size takes the default and an oversized one is capped at the maximum.
func NormalizePageRequest(page, size int, limits PageLimits) coffeechat.PageRequest {
	if limits.DefaultSize <= 0 {
		limits.DefaultSize = DefaultPageSize
	}
	if limits.MaxSize < limits.DefaultSize {
		limits.MaxSize = limits.DefaultSize
	}

	if page < 0 {
		page = DefaultPage
	}
	if size <= 0 {
		size = limits.DefaultSize
	}
	if size > limits.MaxSize {
		size = limits.MaxSize
	}
	// Keeps page*size well inside int and inside every backend's OFFSET range
	if maxPage := math.MaxInt32 / size; page > maxPage {
		page = maxPage
	}
	return coffeechat.PageRequest{Page: page, Size: size}
}

// ParsePaginationParams extracts the page and size query parameters from the request
func ParsePaginationParams(c *gin.Context, limits PageLimits) coffeechat.PageRequest {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		page = DefaultPage
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil {
		size = 0
	}

	return NormalizePageRequest(page, size, limits)
}
