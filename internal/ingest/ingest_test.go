package ingest

import (
	"strings"
	"testing"
)

func TestForFile_Dispatch(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"filing.txt", "*ingest.TextConverter"},
		{"filing.md", "*ingest.TextConverter"},
		{"filing.markdown", "*ingest.TextConverter"},
		{"filing.HTML", "*ingest.HTMLConverter"},
		{"filing.htm", "*ingest.HTMLConverter"},
		{"filing.pdf", "*ingest.PDFConverter"},
		{"filing.docx", "*ingest.DOCXConverter"},
	}
	for _, tt := range tests {
		conv, err := ForFile(tt.filename)
		if err != nil {
			t.Fatalf("ForFile(%q): unexpected error: %v", tt.filename, err)
		}
		var got string
		switch conv.(type) {
		case *TextConverter:
			got = "*ingest.TextConverter"
		case *HTMLConverter:
			got = "*ingest.HTMLConverter"
		case *PDFConverter:
			got = "*ingest.PDFConverter"
		case *DOCXConverter:
			got = "*ingest.DOCXConverter"
		}
		if got != tt.want {
			t.Errorf("ForFile(%q): expected %s, got %s", tt.filename, tt.want, got)
		}
	}
}

func TestForFile_Unsupported(t *testing.T) {
	if _, err := ForFile("filing.xlsx"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("a.htm") {
		t.Error("expected .htm to be supported")
	}
	if !IsSupportedExtension("A.MD") {
		t.Error("expected extension check to be case-insensitive")
	}
	if IsSupportedExtension("a.csv") {
		t.Error("expected .csv to be unsupported")
	}
	if IsSupportedExtension("noext") {
		t.Error("expected extensionless name to be unsupported")
	}
}

func TestTextConverter_Passthrough(t *testing.T) {
	input := "# Heading\n\nBody text.\n"
	c := &TextConverter{}
	got, err := c.Convert(strings.NewReader(input), "filing.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != input {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestTextConverter_NormalizesLineEndings(t *testing.T) {
	c := &TextConverter{}
	got, err := c.Convert(strings.NewReader("a\r\nb\rc\n"), "filing.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a\nb\nc\n" {
		t.Errorf("expected normalized line endings, got %q", got)
	}
}

func TestTextConverter_StripsBOM(t *testing.T) {
	c := &TextConverter{}
	got, err := c.Convert(strings.NewReader("\ufeff# Heading\n"), "filing.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "# Heading\n" {
		t.Errorf("expected BOM stripped, got %q", got)
	}
}
