package ingestion

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/models"
)

const (
	// BinarySampleSize is the number of bytes to sample for binary detection
	BinarySampleSize = 1000
	// BinaryThreshold is the proportion of non-printable characters that indicates binary data
	BinaryThreshold = 0.3
)

// SupportedExtensions lists the resume formats accepted for upload.
var SupportedExtensions = []string{".txt", ".pdf", ".docx"}

// Result is the outcome of ingesting one file: text or page images, never both
type Result struct {
	Text   string
	Images []models.PageImage
}

// HasImages reports whether the document was rendered to pages.
func (r *Result) HasImages() bool {
	return len(r.Images) > 0
}

// PageRenderer rasterizes every page of a PDF
type PageRenderer interface {
	Render(ctx context.Context, pdfData []byte) ([]models.PageImage, error)
}

// Extractor converts uploaded resumes into text or page images
type Extractor struct {
	renderer PageRenderer
}

// NewExtractor creates an extractor that renders PDFs with renderer
func NewExtractor(renderer PageRenderer) *Extractor {
	return &Extractor{renderer: renderer}
}

// IsSupported reports whether the file name has an accepted extension.
func IsSupported(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Extract dispatches on the file extension
func (e *Extractor) Extract(ctx context.Context, fileName string, data []byte) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	switch ext {
	case ".txt":
		return extractTXT(data)
	case ".docx":
		return extractDOCX(data)
	case ".pdf":
		return e.extractPDF(ctx, data)
	default:
		return nil, apperr.UnsupportedFile(fmt.Sprintf("unsupported file type %q, use .txt, .pdf or .docx", ext))
	}
}

func extractTXT(data []byte) (*Result, error) {
	if IsBinaryData(string(data)) {
		return nil, apperr.UnsupportedFile("file has a .txt extension but binary content")
	}
	return &Result{Text: string(data)}, nil
}

func extractDOCX(data []byte) (*Result, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperr.EmptyDocument("the document is empty")
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperr.InvalidInput("failed to open docx file", err)
	}
	defer doc.Close()

	text, err := documentXMLText(doc.Editable().GetContent())
	if err != nil {
		return nil, apperr.InvalidInput("failed to read docx content", err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, apperr.EmptyDocument("the document contains no text")
	}
	return &Result{Text: text}, nil
}

// documentXMLText flattens WordprocessingML into plain text, one line per paragraph.
func documentXMLText(content string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (*Result, error) {
	// A page count the parser cannot read is left to the renderer.
	pages, err := CountPDFPages(data)
	if err == nil && pages == 0 {
		return nil, apperr.UnrenderableDocument("the pdf has no pages", nil)
	}

	images, err := e.renderer.Render(ctx, data)
	if err != nil {
		return nil, apperr.UnrenderableDocument("failed to render pdf pages", err)
	}
	if len(images) == 0 {
		return nil, apperr.UnrenderableDocument("no pages could be rendered", nil)
	}

	return &Result{Images: images}, nil
}

// CountPDFPages returns the number of pages in a PDF document.
func CountPDFPages(data []byte) (pages int, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}

// IsBinaryData checks if content appears to be binary (PDF/ZIP markers)
func IsBinaryData(content string) bool {
	if len(content) == 0 {
		return false
	}

	if strings.HasPrefix(content, "%PDF-") {
		return true
	}

	// ZIP magic number (DOCX files)
	if len(content) >= 2 && content[:2] == "PK" {
		return true
	}

	sampleSize := min(BinarySampleSize, len(content))
	nonPrintable := 0
	for i := 0; i < sampleSize; i++ {
		ch := content[i]
		if ch < 32 && ch != '\n' && ch != '\r' && ch != '\t' {
			nonPrintable++
		}
	}

	return float64(nonPrintable)/float64(sampleSize) > BinaryThreshold
}
