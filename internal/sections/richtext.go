package sections

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// RichText converts merchant-authored content to safe HTML. Content may be
// markdown, HTML, or a mix; everything passes through a UGC sanitizer.
type RichText struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewRichText builds the converter.
func NewRichText() *RichText {
	policy := bluemonday.UGCPolicy()
	policy.AllowStyling()
	return &RichText{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		policy: policy,
	}
}

// HTML converts content. Conversion failures fall back to the sanitized
// input.
func (r *RichText) HTML(content string) template.HTML {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(content), &buf); err != nil {
		return template.HTML(r.policy.Sanitize(content))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// Sanitize cleans an HTML fragment without markdown conversion.
func (r *RichText) Sanitize(content string) template.HTML {
	return template.HTML(r.policy.Sanitize(content))
}
