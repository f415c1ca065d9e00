package analysis

import (
	"time"
	"unicode/utf8"
)

// ExcerptLen bounds the content stored with an audit record.
const ExcerptLen = 512

// Record is an audit trail entry kept for operators.
type Record struct {
	ID             string    `json:"id"`
	Flavor         Flavor    `json:"flavor"`
	Status         Status    `json:"status"`
	MediaType      MediaType `json:"media_type"`
	TargetURL      string    `json:"target_url,omitempty"`
	ContentExcerpt string    `json:"content_excerpt"`
	ImageURL       string    `json:"image_url,omitempty"`
	Model          string    `json:"model,omitempty"`
	RawResponse    string    `json:"raw_response,omitempty"`
	ResultJSON     string    `json:"result"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// Excerpt cuts s to at most ExcerptLen runes.
func Excerpt(s string) string {
	if utf8.RuneCountInString(s) <= ExcerptLen {
		return s
	}
	r := []rune(s)
	return string(r[:ExcerptLen])
}

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Record `json:"data"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	Total      int64     `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
}
