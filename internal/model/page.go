package model

// Pagination bounds shared by every list endpoint.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	MaxPage          = 10000
)

// Page is one page of a list response.
type Page[T any] struct {
	Data    []T  `json:"data"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

// NormalizePage clamps page to 1..MaxPage and limit to 1..MaxPageLimit,
// substituting DefaultPageLimit when limit is unset.
func NormalizePage(page, limit int) (int, int) {
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return page, limit
}
