package dto

// PageResponse is the envelope of every list endpoint
type PageResponse[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

// NewPageResponse never returns a nil Results slice so empty pages serialize as []
func NewPageResponse[T any](results []T, count int64, page, pageSize int) *PageResponse[T] {
	if results == nil {
		results = []T{}
	}
	if page < 1 {
		page = 1
	}
	return &PageResponse[T]{Count: count, Page: page, PageSize: pageSize, Results: results}
}
