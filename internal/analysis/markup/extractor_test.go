package markup

import (
	"strings"
	"testing"
)

func TestExtractPlainHTML(t *testing.T) {
	raw := `<ul id="list"></ul><button id="add">Add</button>`

	got := Extract(raw)
	if got.IsError {
		t.Fatalf("unexpected error result: %+v", got)
	}
	if got.HTML != raw {
		t.Fatalf("expected HTML unchanged, got %q", got.HTML)
	}
}

func TestExtractStripsFencedBlock(t *testing.T) {
	raw := "```html\n<div id=\"home\">Welcome</div>\n```"

	got := Extract(raw)
	if got.IsError {
		t.Fatalf("unexpected error result: %+v", got)
	}
	if got.HTML != `<div id="home">Welcome</div>` {
		t.Fatalf("unexpected HTML: %q", got.HTML)
	}
}

func TestExtractStripsFenceWithoutNewline(t *testing.T) {
	raw := "```html<p id=\"x\">hi</p>```"

	got := Extract(raw)
	if got.HTML != `<p id="x">hi</p>` {
		t.Fatalf("unexpected HTML: %q", got.HTML)
	}
}

func TestExtractDiscardsSurroundingProse(t *testing.T) {
	raw := "Here is the updated view:\n<section id=\"cart\"><p>empty</p></section>\nLet me know if you need more."

	got := Extract(raw)
	if got.IsError {
		t.Fatalf("unexpected error result: %+v", got)
	}
	if !strings.HasPrefix(got.HTML, "<section") || !strings.HasSuffix(got.HTML, "</section>") {
		t.Fatalf("prose not stripped: %q", got.HTML)
	}
}

func TestExtractNoHTMLFallsBack(t *testing.T) {
	got := Extract("I'm sorry, I cannot render that.")
	if !got.IsError {
		t.Fatal("expected error result for non-HTML completion")
	}
	if got.HTML != FallbackErrorHTML {
		t.Fatalf("unexpected fallback markup: %q", got.HTML)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	got := Extract("   \n  ")
	if !got.IsError {
		t.Fatal("expected error result for empty completion")
	}
}

func TestExtractIdempotentOnCleanHTML(t *testing.T) {
	raw := "```html\n<form id=\"login\"><input name=\"user\"></form>\n```"

	first := Extract(raw)
	second := Extract(first.HTML)

	if second.IsError {
		t.Fatalf("unexpected error on re-extraction: %+v", second)
	}
	if second.HTML != first.HTML {
		t.Fatalf("extraction not idempotent: %q != %q", second.HTML, first.HTML)
	}
}

func TestIsNoChange(t *testing.T) {
	if !IsNoChange("NO_CHANGE") {
		t.Fatal("expected bare sentinel to match")
	}
	if !IsNoChange("```\nNO_CHANGE\n```") {
		t.Fatal("expected fenced sentinel to match")
	}
	if IsNoChange(`<p id="a">NO_CHANGE</p>`) {
		t.Fatal("sentinel inside markup should not match")
	}
}
