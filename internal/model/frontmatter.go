package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// ParseFrontmatter splits a document into its metadata block and body.
// The block is a YAML mapping between two "---" delimiter lines at the
// very start of the text. Returns the parsed metadata, the body, and
// whether a block was present. A malformed block reports an error but
// still returns the body — callers decide whether to default or fail
// closed.
func ParseFrontmatter(text string) (Metadata, string, bool, error) {
	var meta Metadata

	if !strings.HasPrefix(text, frontmatterDelimiter+"\n") && text != frontmatterDelimiter {
		return meta, text, false, nil
	}

	rest := text[len(frontmatterDelimiter):]
	rest = strings.TrimPrefix(rest, "\n")

	end := strings.Index(rest, "\n"+frontmatterDelimiter)
	if end < 0 {
		return meta, text, false, fmt.Errorf("metadata block is not terminated")
	}

	block := rest[:end]
	body := rest[end+len("\n"+frontmatterDelimiter):]
	body = strings.TrimPrefix(body, "\n")

	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return Metadata{}, body, true, fmt.Errorf("parse metadata block: %w", err)
	}
	return meta, body, true, nil
}
