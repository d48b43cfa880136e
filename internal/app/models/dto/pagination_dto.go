package dto

// PaginationInfo describes the page returned by a list endpoint. Pages are zero-based.
type PaginationInfo struct {
	Page       int   `json:"page" example:"0"`
	Size       int   `json:"size" example:"12"`
	TotalItems int64 `json:"totalItems" example:"34"`
	TotalPages int   `json:"totalPages" example:"3"`
	First      bool  `json:"first" example:"true"`
	Last       bool  `json:"last" example:"false"`
}
