package model

import "testing"

func TestParseFrontmatterFull(t *testing.T) {
	text := `---
sensitivity: confidential
context_documents:
  - a.md
  - b.md
tags: [finance, q3]
requires_approval: true
retention_days: 90
pii_present: true
---
Body starts here.`

	meta, body, has, err := ParseFrontmatter(text)
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if !has {
		t.Fatal("block not detected")
	}
	if meta.Sensitivity != "confidential" {
		t.Errorf("sensitivity = %q", meta.Sensitivity)
	}
	if len(meta.ContextDocuments) != 2 || meta.ContextDocuments[0] != "a.md" {
		t.Errorf("context_documents = %v", meta.ContextDocuments)
	}
	if len(meta.Tags) != 2 {
		t.Errorf("tags = %v", meta.Tags)
	}
	if !meta.RequiresApproval || !meta.PIIPresent || meta.RetentionDays != 90 {
		t.Errorf("meta = %+v", meta)
	}
	if body != "Body starts here." {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontmatterAbsent(t *testing.T) {
	meta, body, has, err := ParseFrontmatter("Plain document with no block.")
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if has {
		t.Error("block reported for plain text")
	}
	if meta.Sensitivity != "" {
		t.Errorf("sensitivity = %q", meta.Sensitivity)
	}
	if body != "Plain document with no block." {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontmatterHorizontalRuleMidDocument(t *testing.T) {
	text := "First paragraph.\n---\nSecond paragraph."
	_, body, has, err := ParseFrontmatter(text)
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if has {
		t.Error("mid-document rule treated as metadata block")
	}
	if body != text {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontmatterUnterminated(t *testing.T) {
	_, _, _, err := ParseFrontmatter("---\nsensitivity: public\nno terminator")
	if err == nil {
		t.Error("expected error for unterminated block")
	}
}

func TestParseFrontmatterMalformedYAML(t *testing.T) {
	_, body, has, err := ParseFrontmatter("---\nsensitivity: [broken\n---\nbody text")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !has {
		t.Error("block presence not reported on malformed YAML")
	}
	if body != "body text" {
		t.Errorf("body = %q, want preserved body", body)
	}
}

func TestParseFrontmatterEmptyBlock(t *testing.T) {
	meta, body, has, err := ParseFrontmatter("---\n---\nbody")
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if !has {
		t.Error("empty block not detected")
	}
	if meta.Sensitivity != "" {
		t.Errorf("sensitivity = %q", meta.Sensitivity)
	}
	if body != "body" {
		t.Errorf("body = %q", body)
	}
}
