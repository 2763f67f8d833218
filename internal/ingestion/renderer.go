package ingestion

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fmuoria/resmo/internal/models"
)

// RenderDPI renders pages at twice the 72 DPI PDF base resolution.
const RenderDPI = 144

// PopplerRenderer renders PDF pages to PNG with poppler's pdftoppm
type PopplerRenderer struct {
	binary string
	dpi    int
}

// NewPopplerRenderer creates a renderer; an empty binary means "pdftoppm" on PATH
func NewPopplerRenderer(binary string) *PopplerRenderer {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &PopplerRenderer{binary: binary, dpi: RenderDPI}
}

// Render writes the PDF to a scratch directory and rasterizes each page in order
func (p *PopplerRenderer) Render(ctx context.Context, pdfData []byte) ([]models.PageImage, error) {
	dir, err := os.MkdirTemp("", "resmo-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create render directory: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(input, pdfData, 0600); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, p.binary, "-png", "-r", fmt.Sprint(p.dpi), input, prefix)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("PDF rendering requires 'pdftoppm' (install poppler-utils): %w: %s", err, strings.TrimSpace(string(output)))
	}

	return readPageImages(dir)
}

// readPageImages loads the page-N.png files written by pdftoppm, in page order.
func readPageImages(dir string) ([]models.PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read render directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), "page") && strings.HasSuffix(entry.Name(), ".png") {
			names = append(names, entry.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})

	images := make([]models.PageImage, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read page %s: %w", name, err)
		}
		images = append(images, models.PageImage{MIMEType: "image/png", Data: data})
	}
	return images, nil
}
