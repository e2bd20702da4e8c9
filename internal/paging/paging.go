// Package paging holds the page/limit rules shared by every list endpoint.
package paging

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit well inside an int on every platform
	MaxPage = 1_000_000
)

// Clamp maps page and limit into range: page < 1 becomes 1 and is capped at
// MaxPage, limit <= 0 becomes DefaultLimit and limit > MaxLimit becomes MaxLimit.
func Clamp(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Offset is the row offset of an already clamped page
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// Pages returns the page count for total rows
func Pages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
