package mdlive

import "testing"

func TestStripFrontMatterYAML(t *testing.T) {
	src := "---\ntitle: Post\ndate: 2026-02-09\n---\n# Hello\n"
	if got := stripFrontMatter(src, true); got != "# Hello\n" {
		t.Fatalf("yaml: %q", got)
	}
}

func TestStripFrontMatterTOMLAndJSON(t *testing.T) {
	if got := stripFrontMatter("+++\ntitle = \"Post\"\n+++\nBody\n", true); got != "Body\n" {
		t.Fatalf("toml: %q", got)
	}
	if got := stripFrontMatter(";;;\n{\"title\": \"Post\"}\n;;;\nBody\n", true); got != "Body\n" {
		t.Fatalf("json: %q", got)
	}
}

func TestStripFrontMatterOnlyAtStart(t *testing.T) {
	src := "# Intro\n\n---\ntitle: keep\n---\n"
	if got := stripFrontMatter(src, true); got != src {
		t.Fatalf("mid-document block stripped: %q", got)
	}
}

func TestStripFrontMatterUnclosedAtEOFKept(t *testing.T) {
	src := "---\ntitle: Post\n"
	if got := stripFrontMatter(src, true); got != src {
		t.Fatalf("unclosed front matter stripped at eof: %q", got)
	}
}

func TestStripFrontMatterUnclosedWhileStreamingWithheld(t *testing.T) {
	if got := stripFrontMatter("---\ntitle: Post\n", false); got != "" {
		t.Fatalf("streaming front matter leaked: %q", got)
	}
}

func TestStripFrontMatterNonMetadataBodyKept(t *testing.T) {
	src := "---\njust prose here\n---\nTail\n"
	if got := stripFrontMatter(src, true); got != src {
		t.Fatalf("prose between delimiters stripped: %q", got)
	}
}
