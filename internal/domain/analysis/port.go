package analysis

import "context"

// Repository port for persisting and querying audit records.
// An empty flavor matches every flavor.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Paginate(ctx context.Context, flavor Flavor, page, pageSize int) ([]*Record, error)
	Count(ctx context.Context, flavor Flavor) (int64, error)
}

// ImageStore archives submitted screenshots and returns their location.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ContentFetcher resolves a URL into content when the caller sent none.
type ContentFetcher interface {
	// FetchPage returns the page markup with scripts and styles removed.
	FetchPage(ctx context.Context, url string) (string, error)
	// FetchArticle returns the readable text of the page.
	FetchArticle(ctx context.Context, url string) (string, error)
}
