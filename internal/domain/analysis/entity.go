package analysis

import (
	"strings"
	"time"
)

// MediaType of the submitted content.
type MediaType string

const (
	MediaText  MediaType = "text"
	MediaImage MediaType = "image"
)

// ParseMediaType maps a client supplied type to a MediaType. Anything that is not "image" is text.
func ParseMediaType(s string) MediaType {
	if strings.EqualFold(strings.TrimSpace(s), string(MediaImage)) {
		return MediaImage
	}
	return MediaText
}

// Flavor selects the prompt and the response schema.
type Flavor string

const (
	FlavorClaims        Flavor = "claims"
	FlavorAccessibility Flavor = "accessibility"
)

// Status tells how a Result was produced. It travels beside the report, never inside it.
type Status string

const (
	StatusOK             Status = "ok"
	StatusDemo           Status = "demo"
	StatusTransportError Status = "transport_error"
	StatusShapeError     Status = "shape_error"
)

// Fallback reports whether the report is the fixed fallback payload.
func (s Status) Fallback() bool { return s != StatusOK }

// ImagePlaceholder replaces empty content on image-only submissions.
const ImagePlaceholder = "Analyze this image"

// Request is the content handed over by the UI collaborator.
type Request struct {
	Content   string
	MediaType MediaType
	ImageData string // data URL, used only when MediaType is image
	URL       string
	Personas  []Persona
}

// Normalize pins down the combinations the UI may send:
// an image request without image data becomes a text request,
// and empty content is replaced by ImagePlaceholder unless a URL names the source.
func (r Request) Normalize() Request {
	if r.MediaType != MediaImage {
		r.MediaType = MediaText
	}
	if r.MediaType == MediaImage && strings.TrimSpace(r.ImageData) == "" {
		r.MediaType = MediaText
	}
	if r.MediaType == MediaText {
		r.ImageData = ""
	}
	if strings.TrimSpace(r.Content) == "" && r.URL == "" {
		r.Content = ImagePlaceholder
	}
	return r
}

// Report is the structured payload returned to the caller.
type Report interface {
	Target() string
	FindingCount() int
	AggregateScore() int
}

// Result bundles a report with how it was obtained.
type Result struct {
	ID        string        `json:"id"`
	Flavor    Flavor        `json:"flavor"`
	Status    Status        `json:"status"`
	Model     string        `json:"model,omitempty"`
	Report    Report        `json:"report"`
	Duration  time.Duration `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}
