// Package parser extracts a title and a metadata block from note content.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result holds the output of parsing a note.
type Result struct {
	Title string
	Meta  map[string]string
	Body  string
}

// Date returns meta["date"] when present.
func (r Result) Date() *string {
	d, ok := r.Meta["date"]
	if !ok {
		return nil
	}
	return &d
}

// Parse splits frontmatter from the body and derives the title.
// It never fails: malformed frontmatter is treated as part of the body.
func Parse(data []byte) Result {
	meta, body := splitFrontmatter(data)
	return Result{
		Title: deriveTitle(meta, body),
		Meta:  meta,
		Body:  body,
	}
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. Only scalar values are kept, as their literal text.
func splitFrontmatter(data []byte) (map[string]string, string) {
	const delim = "---"
	meta := map[string]string{}
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return meta, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return meta, string(data)
	}

	block := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")

	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return meta, string(data)
	}
	if len(doc.Content) == 0 {
		return meta, body
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return meta, string(data)
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
			continue
		}
		meta[k.Value] = v.Value
	}
	return meta, body
}

// deriveTitle returns meta "title" if present, otherwise the first H1 heading.
func deriveTitle(meta map[string]string, body string) string {
	if t := strings.TrimSpace(meta["title"]); t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
