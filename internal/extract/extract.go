// Package extract pulls plain text out of uploaded course material.
// PDF text comes from the pdf reader page by page; txt and markdown
// files pass through as-is. Downstream analysis only ever sees the
// extracted text, never file bytes.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FileResult is one file's extraction outcome. Failures are recorded
// per file so one broken upload does not sink the batch.
type FileResult struct {
	Name      string `json:"name"`
	Text      string `json:"-"`
	CharCount int    `json:"char_count"`
	PageCount int    `json:"page_count,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// File extracts text from a single file based on its extension.
func File(path string) FileResult {
	name := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path, name)
	case ".txt", ".md", ".text", ".markdown":
		return extractPlain(path, name)
	default:
		return FileResult{
			Name:  name,
			Error: fmt.Sprintf("unsupported file type %q", filepath.Ext(path)),
		}
	}
}

// Files extracts every path, continuing past failures.
func Files(paths []string) []FileResult {
	results := make([]FileResult, len(paths))
	for i, p := range paths {
		results[i] = File(p)
	}
	return results
}

func extractPlain(path, name string) FileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Name: name, Error: err.Error()}
	}
	text := string(data)
	return FileResult{
		Name:      name,
		Text:      text,
		CharCount: len(text),
		Success:   true,
	}
}

func extractPDF(path, name string) FileResult {
	f, r, err := pdf.Open(path)
	if err != nil {
		return FileResult{Name: name, Error: fmt.Sprintf("open pdf: %v", err)}
	}
	defer f.Close()

	var content strings.Builder
	totalPages := r.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page is not worth failing the file.
			continue
		}
		content.WriteString(text)
		content.WriteString("\n")
	}

	text := content.String()
	if strings.TrimSpace(text) == "" {
		return FileResult{Name: name, PageCount: totalPages, Error: "no extractable text (scanned or image-only pdf)"}
	}

	return FileResult{
		Name:      name,
		Text:      text,
		CharCount: len(text),
		PageCount: totalPages,
		Success:   true,
	}
}
