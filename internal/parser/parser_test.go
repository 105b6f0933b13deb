package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ndate: 2024-03-01\ntags:\n  - go\n---\n# Heading\nBody text.\n")
	r := Parse(input)
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if r.Meta["date"] != "2024-03-01" {
		t.Errorf("date = %q", r.Meta["date"])
	}
	if _, ok := r.Meta["tags"]; ok {
		t.Error("non-scalar values should be dropped from meta")
	}
	if r.Body != "# Heading\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
	if d := r.Date(); d == nil || *d != "2024-03-01" {
		t.Errorf("Date() = %v", d)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := Parse([]byte("# Just a heading\nSome text.\n"))
	if len(r.Meta) != 0 {
		t.Errorf("expected empty meta, got %v", r.Meta)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
	if r.Date() != nil {
		t.Error("expected nil date")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r := Parse(input)
	if len(r.Meta) != 0 {
		t.Errorf("expected empty meta on invalid YAML")
	}
	if r.Body != string(input) {
		t.Errorf("body should be the whole input, got %q", r.Body)
	}
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	input := []byte("---\ntitle: x\nno closing fence\n")
	r := Parse(input)
	if r.Title != "" {
		t.Errorf("title = %q, want empty", r.Title)
	}
}

func TestParse_TitleFallsBackToHeading(t *testing.T) {
	r := Parse([]byte("---\ndate: 2024-01-01\n---\n\n# From heading\n"))
	if r.Title != "From heading" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_NullDateIgnored(t *testing.T) {
	r := Parse([]byte("---\ntitle: T\ndate:\n---\nbody\n"))
	if r.Date() != nil {
		t.Errorf("Date() = %q, want nil", *r.Date())
	}
}
