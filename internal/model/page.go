package model

// TotalPages returns the number of pages needed for total rows at size rows
// per page.
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Offset returns the row offset of a 1-based page. Pages below 1 are
// treated as the first page.
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}
