package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	d, err := ParseDataURL("data:image/PNG;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", d.MIMEType)
	assert.Equal(t, []byte("hello"), d.Data)
	assert.Equal(t, "png", d.Extension())

	d, err = ParseDataURL("data:image/jpeg;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "jpg", d.Extension())
}

func TestParseDataURLRejects(t *testing.T) {
	for _, s := range []string{
		"https://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,raw",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,***",
	} {
		_, err := ParseDataURL(s)
		assert.Error(t, err, s)
	}
}
