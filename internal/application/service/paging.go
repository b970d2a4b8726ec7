package service

// Page sizes used by the portal listings
const (
	InboxPageSize  = 6
	StatusPageSize = 5
)

// PageInfo describes one page of a listing
type PageInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPageInfo(page, size, total int) PageInfo {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return PageInfo{Page: normalizePage(page), PageSize: size, Total: total, TotalPages: pages}
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// clampPage limits page to one past the last page of total items so the
// offset arithmetic cannot overflow
func clampPage(page, size, total int) int {
	page = normalizePage(page)
	if size <= 0 {
		return 1
	}
	if last := (total+size-1)/size + 1; page > last {
		return last
	}
	return page
}

// pageBounds returns the slice bounds of a page over n items
func pageBounds(page, size, n int) (start, end int) {
	start = (clampPage(page, size, n) - 1) * size
	if start > n {
		start = n
	}
	end = start + size
	if end > n {
		end = n
	}
	return start, end
}

// Counts summarises requests by outcome. Approved includes completed requests.
type Counts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}
