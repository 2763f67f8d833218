package ingestion

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/models"
)

type stubRenderer struct {
	images []models.PageImage
	err    error
	calls  int
}

func (s *stubRenderer) Render(ctx context.Context, pdfData []byte) ([]models.PageImage, error) {
	s.calls++
	return s.images, s.err
}

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": relsXML,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// buildPDF writes a minimal PDF with the given number of blank pages.
func buildPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		writeObj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestExtractTXT(t *testing.T) {
	e := NewExtractor(&stubRenderer{})
	result, err := e.Extract(context.Background(), "resume.txt", []byte("Hello"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Text != "Hello" || result.HasImages() {
		t.Errorf("Expected text Hello and no images, got %+v", result)
	}
}

func TestExtractTXTRejectsBinary(t *testing.T) {
	e := NewExtractor(&stubRenderer{})
	_, err := e.Extract(context.Background(), "resume.txt", []byte("%PDF-1.4\nbinary"))
	if !apperr.Is(err, apperr.KindUnsupportedFile) {
		t.Errorf("Expected UnsupportedFile, got %v", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	body := `<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">Senior </w:t></w:r><w:r><w:t>Engineer</w:t></w:r></w:p>`
	e := NewExtractor(&stubRenderer{})

	result, err := e.Extract(context.Background(), "Resume.DOCX", buildDOCX(t, body))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Text != "Jane Doe\nSenior Engineer" {
		t.Errorf("Unexpected text %q", result.Text)
	}
}

func TestExtractEmptyDOCX(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"blank paragraphs", buildDOCX(t, `<w:p></w:p><w:p><w:r><w:t>   </w:t></w:r></w:p>`)},
		{"zero bytes", []byte{}},
		{"whitespace only", []byte(" \n\t")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(&stubRenderer{}).Extract(context.Background(), "empty.docx", tt.data)
			if !apperr.Is(err, apperr.KindEmptyDocument) {
				t.Errorf("Expected EmptyDocument, got %v", err)
			}
		})
	}
}

func TestExtractPDF(t *testing.T) {
	renderer := &stubRenderer{images: []models.PageImage{
		{MIMEType: "image/png", Data: []byte{1}},
		{MIMEType: "image/png", Data: []byte{2}},
	}}
	e := NewExtractor(renderer)

	result, err := e.Extract(context.Background(), "resume.pdf", buildPDF(2))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Images) != 2 || result.Text != "" {
		t.Errorf("Expected 2 images and no text, got %+v", result)
	}
	if renderer.calls != 1 {
		t.Errorf("Expected renderer to be called once, got %d", renderer.calls)
	}
}

func TestExtractPDFUnrenderable(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		renderer *stubRenderer
	}{
		{"zero pages", buildPDF(0), &stubRenderer{images: []models.PageImage{{MIMEType: "image/png"}}}},
		{"renderer failure", buildPDF(1), &stubRenderer{err: errors.New("pdftoppm missing")}},
		{"nothing rendered", buildPDF(1), &stubRenderer{}},
		{"not a pdf", []byte("plain text pretending"), &stubRenderer{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(tt.renderer).Extract(context.Background(), "resume.pdf", tt.data)
			if !apperr.Is(err, apperr.KindUnrenderableDocument) {
				t.Errorf("Expected UnrenderableDocument, got %v", err)
			}
		})
	}
}

func TestExtractPDFUnparsedPageCount(t *testing.T) {
	renderer := &stubRenderer{images: []models.PageImage{{MIMEType: "image/png", Data: []byte{1}}}}
	data := []byte("%PDF-1.7\nobjects the page counter cannot follow")
	if _, err := CountPDFPages(data); err == nil {
		t.Fatal("Expected CountPDFPages to fail on truncated pdf")
	}

	result, err := NewExtractor(renderer).Extract(context.Background(), "resume.pdf", data)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Images) != 1 || renderer.calls != 1 {
		t.Errorf("Expected renderer output to be used, got %+v after %d calls", result, renderer.calls)
	}
}

func TestCountPDFPages(t *testing.T) {
	for _, n := range []int{1, 3} {
		got, err := CountPDFPages(buildPDF(n))
		if err != nil {
			t.Fatalf("CountPDFPages() error = %v", err)
		}
		if got != n {
			t.Errorf("CountPDFPages() = %d, want %d", got, n)
		}
	}
}

func TestExtractUnsupported(t *testing.T) {
	for _, name := range []string{"resume.doc", "resume.png", "resume"} {
		_, err := NewExtractor(&stubRenderer{}).Extract(context.Background(), name, []byte("data"))
		if !apperr.Is(err, apperr.KindUnsupportedFile) {
			t.Errorf("Extract(%q) error = %v, want UnsupportedFile", name, err)
		}
	}
}

func TestIsSupported(t *testing.T) {
	tests := map[string]bool{
		"cv.txt":  true,
		"CV.PDF":  true,
		"cv.docx": true,
		"cv.doc":  false,
		"cv.rtf":  false,
	}
	for name, want := range tests {
		if got := IsSupported(name); got != want {
			t.Errorf("IsSupported(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsBinaryData(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"simple text", "This is a plain text CV with normal content.", false},
		{"multi-line", "John Doe\nSoftware Engineer\n5 years experience", false},
		{"empty", "", false},
		{"tabs", "Name:\tJohn\nTitle:\tEngineer", false},
		{"pdf header", "%PDF-1.4\n%âãÏÓ\n", true},
		{"zip header", "PK\x03\x04rest", true},
		{"control characters", "\x01\x02\x03\x04\x05abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBinaryData(tt.content); got != tt.want {
				t.Errorf("IsBinaryData(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}
