package api

import (
	"errors"  // Error comparison
	"strconv" // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
)

const (
	defaultPageSize = 20      // Default page size
	maxPageSize     = 100     // Upper bound for page_size
	maxPage         = 1 << 20 // Upper bound for page
)

// pageParams reads page and page_size from the query. paged is false when
// neither was supplied.
func pageParams(c *gin.Context) (page, pageSize int, paged bool) {
	page, pageSize = 1, defaultPageSize
	if p := c.Query("page"); p != "" {
		paged = true
		v, err := strconv.Atoi(p)
		switch {
		case errors.Is(err, strconv.ErrRange) && p[0] != '-', err == nil && v > maxPage:
			page = maxPage // Past the last page rather than back to the first
		case err == nil && v > 0:
			page = v // Set page if valid
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		paged = true
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= maxPageSize {
			pageSize = v // Set page size if valid
		}
	}
	return page, pageSize, paged
}

// idParam parses a positive numeric path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
