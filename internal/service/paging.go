package service

import "math"

// maxOffset keeps OFFSET within what every supported database accepts
const maxOffset = math.MaxInt32

// pageOffset returns the row offset of a 1-based page, saturating at maxOffset
func pageOffset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	if page-1 > maxOffset/pageSize {
		return maxOffset
	}
	return (page - 1) * pageSize
}
