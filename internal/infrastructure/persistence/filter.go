package persistence

import (
	"strings"

	"github.com/pharmacore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// applyFilter applies pagination and ordering to a query. OrderBy is checked
// against the allow-list to keep user input out of the ORDER BY clause.
func applyFilter(query *gorm.DB, filter shared.Filter, defaultOrder string, allowedOrderColumns ...string) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	order := defaultOrder
	if filter.OrderBy != "" && isAllowedColumn(filter.OrderBy, allowedOrderColumns) {
		dir := "ASC"
		if strings.EqualFold(filter.OrderDir, "desc") {
			dir = "DESC"
		}
		order = filter.OrderBy + " " + dir
	}
	if order != "" {
		query = query.Order(order)
	}
	return query
}

func isAllowedColumn(column string, allowed []string) bool {
	for _, c := range allowed {
		if c == column {
			return true
		}
	}
	return false
}
