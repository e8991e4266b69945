package server

import "github.com/smallbiznis/ratewise/pkg/db/pagination"

// Single entities ride in "item", collections in "items".
type itemResponse struct {
	Item any `json:"item"`
}

type itemsResponse struct {
	Items    any                  `json:"items"`
	PageInfo *pagination.PageInfo `json:"page_info,omitempty"`
}
