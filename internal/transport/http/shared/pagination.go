package shared

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type Pagination struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := defaultLimit
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Limit: limit, Offset: offset}
}

// Page is ParsePagination with the API-wide defaults.
func Page(r *http.Request) Pagination {
	return ParsePagination(r, DefaultPageSize, MaxPageSize)
}
