package dto

import "time"

type ResourceResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Category    *string   `json:"category,omitempty"`
	IsFree      bool      `json:"is_free"`
	PriceCents  *int64    `json:"price_cents,omitempty"`
	ExternalURL *string   `json:"external_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ResourceListResponse struct {
	Resources []ResourceResponse `json:"resources"`
}

type ResourceEditRequest struct {
	Title       string  `json:"title"`
	Category    *string `json:"category,omitempty"`
	IsFree      bool    `json:"is_free"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
	ExternalURL *string `json:"external_url,omitempty"`
}
