package model

import "time"

// Resource is a downloadable or externally linked digital asset. PriceCents
// is set iff the resource is not free; ExternalURL, when set, replaces the
// stored object as the download target.
type Resource struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	FileKey     string    `json:"file_key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Category    *string   `json:"category,omitempty"`
	IsFree      bool      `json:"is_free"`
	PriceCents  *int64    `json:"price_cents,omitempty"`
	ExternalURL *string   `json:"external_url,omitempty"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
