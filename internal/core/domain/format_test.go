package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"canonical", FormatCanonical},
		{"HTML", FormatCanonical},
		{" pdf ", FormatPaginated},
		{"paginated-document", FormatPaginated},
		{"md", FormatMarkdown},
		{"plain-text-markup", FormatMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestFormat_Properties(t *testing.T) {
	assert.Equal(t, []Format{FormatCanonical, FormatPaginated, FormatMarkdown}, Formats())

	assert.Equal(t, "application/pdf", FormatPaginated.ContentType())
	assert.Equal(t, ".md", FormatMarkdown.Extension())
	assert.Equal(t, ".html", FormatCanonical.Extension())
	assert.Equal(t, "application/octet-stream", Format("x").ContentType())
	assert.True(t, FormatPaginated.Binary())
	assert.False(t, FormatMarkdown.Binary())
	assert.Equal(t, "markdown", FormatMarkdown.String())
}
