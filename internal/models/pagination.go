package models

import "encoding/json"

// Pagination is the metadata block attached to every paginated listing.
// TotalKey names the count field in JSON ("totalPosts", "totalComments", ...).
type Pagination struct {
	CurrentPage int
	TotalPages  int
	Total       int64
	HasNextPage bool
	HasPrevPage bool
	Limit       int
	TotalKey    string
}

// NewPagination derives page metadata from a match count. limit must be positive.
func NewPagination(page, limit int, total int64, totalKey string) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
		Limit:       limit,
		TotalKey:    totalKey,
	}
}

// Offset is the number of rows skipped before this page.
func (p Pagination) Offset() int {
	if p.CurrentPage < 1 {
		return 0
	}
	return (p.CurrentPage - 1) * p.Limit
}

// MarshalJSON writes the block with its total under TotalKey.
func (p Pagination) MarshalJSON() ([]byte, error) {
	key := p.TotalKey
	if key == "" {
		key = "total"
	}
	return json.Marshal(map[string]interface{}{
		"currentPage": p.CurrentPage,
		"totalPages":  p.TotalPages,
		key:           p.Total,
		"hasNextPage": p.HasNextPage,
		"hasPrevPage": p.HasPrevPage,
		"limit":       p.Limit,
	})
}
