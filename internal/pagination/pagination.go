// Package pagination slices ordered collections into fixed-size page
// windows. It is pure arithmetic over a total count and a requested page
// number; callers apply the resulting limit/offset to their own query.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageSize is the number of items per page across all feeds.
const PageSize = 10

type Page struct {
	Number     int   `json:"number"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`

	Limit  int `json:"-"`
	Offset int `json:"-"`
}

// FromQuery reads the requested page number from the "page" query
// parameter, defaulting to 1 on absence or garbage.
func FromQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		return 1
	}
	return page
}

// Window computes the page window for a collection of total items.
// Out-of-range page numbers clamp to the nearest valid page, so a request
// beyond the end yields the last page rather than an empty result.
func Window(total int64, page int) Page {
	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Page{
		Number:     page,
		TotalPages: totalPages,
		TotalItems: total,
		Limit:      PageSize,
		Offset:     (page - 1) * PageSize,
	}
}
