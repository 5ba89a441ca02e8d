package pagination

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page window for list endpoints
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads page and limit from the request query
func Parse(c *gin.Context) Params {
	return FromQuery(c.Request.URL.Query())
}

// FromQuery clamps page to >= 1 and limit to [1, MaxLimit]. Missing or
// malformed values fall back to the defaults.
func FromQuery(q url.Values) Params {
	page := atoiOr(q.Get("page"), DefaultPage)
	limit := atoiOr(q.Get("limit"), DefaultLimit)

	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// TotalPages is the number of pages needed for total rows
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
