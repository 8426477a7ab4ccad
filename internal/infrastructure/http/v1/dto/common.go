// Package dto provides data transfer objects for API requests and responses.
package dto

import (
	"mesa/internal/core/id"
	"mesa/internal/domain"
)

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult converts a domain list result.
func FromListResult[T any](r domain.ListResult[T]) ListResponse[T] {
	return ListResponse[T]{
		Items:      r.Items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates an ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SetDeletionMarkRequest toggles soft deletion.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// ListQuery carries the common list parameters bound from the query string.
type ListQuery struct {
	Search         string `form:"search"`
	OrderBy        string `form:"orderBy"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
	IncludeDeleted bool   `form:"includeDeleted"`
}

func (q *ListQuery) ToFilter() domain.ListFilter {
	filter := listFilterFrom(q.Search, q.OrderBy, q.Limit, q.Offset)
	filter.IncludeDeleted = q.IncludeDeleted
	return filter
}

func listFilterFrom(search, orderBy string, limit, offset int) domain.ListFilter {
	filter := domain.DefaultListFilter()
	filter.Search = search
	if orderBy != "" {
		filter.OrderBy = orderBy
	}
	if limit > 0 {
		filter.Limit = limit
	}
	if offset > 0 {
		filter.Offset = offset
	}
	return filter
}
