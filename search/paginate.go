package search

type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"hasMore"`
}

func newPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasMore: int64(page*limit) < total,
	}
}

// paginate slices refined results to the requested page. When the candidate
// fetch hit its cap, total is a lower bound and a full page keeps hasMore set.
func paginate(items []SalonResult, page, limit int, capped bool) ([]SalonResult, Pagination) {
	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	pg := newPagination(page, limit, int64(total))
	if capped && end-start == limit {
		pg.HasMore = true
	}
	return items[start:end], pg
}
