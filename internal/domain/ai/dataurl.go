package ai

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DataURL is a decoded inline image payload.
type DataURL struct {
	MIMEType string
	Data     []byte
}

// Extension returns the file extension matching the MIME type, without a dot.
func (d DataURL) Extension() string {
	switch d.MIMEType {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}

// ParseDataURL decodes data:<mime>;base64,<payload>. Only base64 image payloads are accepted.
func ParseDataURL(s string) (DataURL, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return DataURL{}, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURL{}, fmt.Errorf("data URL has no payload")
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return DataURL{}, fmt.Errorf("data URL must be base64 encoded")
	}
	mime = strings.ToLower(mime)
	if !strings.HasPrefix(mime, "image/") {
		return DataURL{}, fmt.Errorf("unsupported media type %q", mime)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return DataURL{}, fmt.Errorf("decode data URL: %w", err)
	}
	return DataURL{MIMEType: mime, Data: data}, nil
}
