package reddit

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/nkiryanov/trippit/internal/models"
)

var (
	mdRenderer    = goldmark.New(goldmark.WithExtensions(extension.GFM))
	htmlSanitizer = bluemonday.UGCPolicy()
)

// What Publish would submit, plus HTML to show it before posting
type Preview struct {
	Title    string
	Markdown string
	HTML     string

	// Set when the itinerary is incomplete and was rendered as summary
	FormatErr error
}

func NewPreview(title string, it models.Itinerary) (Preview, error) {
	text, formatErr := Render(it)

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(text), &buf); err != nil {
		return Preview{}, fmt.Errorf("error while converting markdown. Err: %w", err)
	}

	return Preview{
		Title:     title,
		Markdown:  text,
		HTML:      htmlSanitizer.Sanitize(buf.String()),
		FormatErr: formatErr,
	}, nil
}
