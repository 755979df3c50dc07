// Package markup isolates the renderable HTML payload from raw model
// completions. Models wrap answers in markdown fences or surround them with
// prose; everything here is pure text analysis with no I/O.
package markup

import (
	"regexp"
	"strings"
)

// NoChangeSentinel is emitted by the model when an interaction requires no
// re-render.
const NoChangeSentinel = "NO_CHANGE"

// FallbackErrorHTML is returned when a completion contains nothing
// HTML-like.
const FallbackErrorHTML = `<div class="figment-error"><strong>Something went wrong.</strong><p>The application did not produce a view. Try your last action again.</p></div>`

var (
	openingFenceRe = regexp.MustCompile("^```[a-zA-Z]*")
	tagRe          = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)
)

// Result is the outcome of extraction: the isolated HTML fragment, or
// fallback error markup when none was found.
type Result struct {
	HTML    string
	IsError bool
}

// Extract strips markdown code fences and surrounding prose from a raw
// completion and returns the HTML payload. Extraction is idempotent: running
// it over already-clean HTML returns the same HTML.
func Extract(raw string) Result {
	text := StripCodeFences(raw)

	loc := tagRe.FindStringIndex(text)
	if loc == nil {
		return Result{HTML: FallbackErrorHTML, IsError: true}
	}

	// Keep everything from the first tag through the last closing angle
	// bracket; prose before or after the payload is commentary, not view.
	end := strings.LastIndex(text, ">")
	if end < loc[0] {
		return Result{HTML: FallbackErrorHTML, IsError: true}
	}

	return Result{HTML: strings.TrimSpace(text[loc[0] : end+1])}
}

// StripCodeFences removes a leading ```lang fence line and a trailing ```
// fence from the text, if present.
func StripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		} else {
			text = openingFenceRe.ReplaceAllString(text, "")
		}
	}

	if strings.HasSuffix(text, "```") {
		if idx := strings.LastIndex(text, "\n```"); idx != -1 {
			text = text[:idx]
		} else {
			text = text[:len(text)-3]
		}
	}

	return strings.TrimSpace(text)
}

// IsNoChange reports whether a completion is the NO_CHANGE sentinel rather
// than a view.
func IsNoChange(raw string) bool {
	return StripCodeFences(raw) == NoChangeSentinel
}
