package models

import "encoding/json"

// APIResponse is the envelope every successful backend response is wrapped in
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// ErrorResponse is the body the backend sends with a failure status
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginationParams represents limit/offset paging used by list endpoints
type PaginationParams struct {
	Limit  int `json:"limit" yaml:"limit" validate:"gte=1,lte=100"`
	Offset int `json:"offset" yaml:"offset" validate:"gte=0"`
}

// Default page size used by history and report listings
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NewPagination returns paging parameters, falling back to the default limit when zero
func NewPagination(limit, offset int) PaginationParams {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	return PaginationParams{Limit: limit, Offset: offset}
}
