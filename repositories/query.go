package repositories

import (
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListQuery carries pagination, search and sorting for list endpoints.
type ListQuery struct {
	Search    string
	Status    string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// Normalize clamps pagination and resolves SortBy against the allowed
// columns, falling back to the first one.
func (q ListQuery) Normalize(sortable ...string) ListQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Search = strings.TrimSpace(q.Search)

	allowed := false
	for _, col := range sortable {
		if q.SortBy == col {
			allowed = true
			break
		}
	}
	if !allowed && len(sortable) > 0 {
		q.SortBy = sortable[0]
	}

	q.SortOrder = strings.ToLower(q.SortOrder)
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	return q
}

// searchScope matches the term case-insensitively against the given columns.
func searchScope(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + strings.ToLower(term) + "%"
		clauses := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			clauses[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = like
		}
		return db.Where(strings.Join(clauses, " OR "), args...)
	}
}

// paginate applies ordering, limit and offset of a normalized query.
func paginate(q ListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(q.SortBy + " " + q.SortOrder).Limit(q.Limit).Offset(q.Offset)
	}
}
