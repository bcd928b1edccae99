// Package extract provides text extraction from uploaded document formats.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SupportedFormats maps accepted file extensions to display names.
var SupportedFormats = map[string]string{
	".pdf":  "PDF Document",
	".docx": "Word Document",
	".doc":  "Word Document",
	".txt":  "Text File",
	".xlsx": "Excel Spreadsheet",
	".xls":  "Excel Spreadsheet",
}

// Supported reports whether ext (with leading dot) is an accepted format.
func Supported(ext string) bool {
	_, ok := SupportedFormats[strings.ToLower(ext)]
	return ok
}

// Extractor extracts plain text from document bytes.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx", ".doc":
		return extractDOCX(content)
	case ".xlsx", ".xls":
		return extractExcel(content)
	case ".txt":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("unsupported file format: %s", ext)
	}
}

// extractPlain returns content as a string, replacing invalid UTF-8
// sequences with the replacement character.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�"), nil
	}
	return string(content), nil
}
