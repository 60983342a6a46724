package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadText(t *testing.T) {
	for _, ext := range []string{".txt", ".csv", ".log"} {
		path := writeTempFile(t, "file"+ext, "plain content\nline two")
		doc, err := Load(path)
		if err != nil {
			t.Fatalf("%s: %v", ext, err)
		}
		if doc.SourceType != TypeText {
			t.Errorf("%s: source type = %q, want %q", ext, doc.SourceType, TypeText)
		}
		if doc.Content != "plain content\nline two" {
			t.Errorf("%s: content altered: %q", ext, doc.Content)
		}
	}
}

func TestLoadMarkdownStripsFormatting(t *testing.T) {
	md := "# Title\n\nSome **bold** and *italic* text with [a link](https://example.com).\n\n- first item\n- second item\n"
	path := writeTempFile(t, "doc.md", md)

	doc, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.SourceType != TypeMarkdown {
		t.Errorf("source type = %q, want %q", doc.SourceType, TypeMarkdown)
	}

	for _, marker := range []string{"#", "**", "](", "https://example.com"} {
		if strings.Contains(doc.Content, marker) {
			t.Errorf("formatting marker %q survived: %q", marker, doc.Content)
		}
	}
	for _, want := range []string{"Title", "Some bold and italic text with a link.", "first item", "second item"} {
		if !strings.Contains(doc.Content, want) {
			t.Errorf("missing text %q in %q", want, doc.Content)
		}
	}
	if !strings.HasPrefix(doc.Content, "Title\n\n") {
		t.Errorf("heading must be followed by a blank line: %q", doc.Content)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeTempFile(t, "image.png", "not text")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "gone.txt")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestExtractTextFromXML(t *testing.T) {
	xml := `<p:sp><a:t>Hello</a:t></p:sp><p:sp><a:t>World</a:t></p:sp>`
	got := extractTextFromXML(xml)
	if !strings.Contains(got, "Hello") || !strings.Contains(got, "World") {
		t.Errorf("extracted %q, want both text runs", got)
	}
}
