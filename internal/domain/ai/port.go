package ai

import "context"

// Request is one user turn sent to the hosted model.
// ImageURL is a data URL (data:image/png;base64,...) and is optional.
type Request struct {
	Prompt   string
	ImageURL string
}

// HasImage reports whether the turn carries an image part.
func (r Request) HasImage() bool { return r.ImageURL != "" }

// Client is the narrow boundary to the hosted model: one prompt in, raw text out.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}
