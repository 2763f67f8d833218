package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/resmo/internal/models"
	"github.com/fmuoria/resmo/internal/stats"
)

const (
	summarySheet  = "Summary"
	pipelineSheet = "Pipeline"
	auditSheet    = "Audit Log"
)

// statusColors are the row fills of the pipeline sheet
var statusColors = map[models.Status]string{
	models.StatusNew:                 "DDEBF7",
	models.StatusSkillCheckPending:   "FCE4D6",
	models.StatusSkillCheckCompleted: "E2EFDA",
	models.StatusShortlisted:         "FFEB9C",
	models.StatusInterviewing:        "E4DFEC",
	models.StatusHired:               "C6EFCE",
	models.StatusRejected:            "FFC7CE",
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// ExportToExcel writes the pipeline report to outputPath
func ExportToExcel(candidates []*models.Candidate, outputPath string, generatedAt time.Time) error {
	// Ensure output path has .xlsx extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	f, err := buildWorkbook(candidates, generatedAt)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(outputPath); err != nil {
		// If direct save fails, try buffer write fallback
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}
		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return nil
}

// WriteExcel streams the pipeline report to w
func WriteExcel(w io.Writer, candidates []*models.Candidate, generatedAt time.Time) error {
	f, err := buildWorkbook(candidates, generatedAt)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func buildWorkbook(candidates []*models.Candidate, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(pipelineSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create pipeline sheet: %w", err)
	}
	if _, err := f.NewSheet(auditSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create audit sheet: %w", err)
	}

	if err := createSummarySheet(f, stats.Compute(candidates), generatedAt); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := createPipelineSheet(f, candidates); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create pipeline sheet: %w", err)
	}
	if err := createAuditSheet(f, candidates); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create audit sheet: %w", err)
	}

	return f, nil
}

func headerStyle(f *excelize.File, size float64, horizontal string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: size, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: horizontal, Vertical: "center"},
		Border:    thinBorder,
	})
}

// createSummarySheet writes the dashboard statistics
func createSummarySheet(f *excelize.File, s stats.Summary, generatedAt time.Time) error {
	sheet := summarySheet
	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 16)
	f.SetColWidth(sheet, "C", "C", 14)

	titleStyle, err := headerStyle(f, 14, "left")
	if err != nil {
		return err
	}
	sectionStyle, err := headerStyle(f, 11, "left")
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	cell := func(col string, r int) string { return fmt.Sprintf("%s%d", col, r) }

	label := func(text string, value any) {
		f.SetCellValue(sheet, cell("A", row), text)
		f.SetCellStyle(sheet, cell("A", row), cell("A", row), labelStyle)
		f.SetCellValue(sheet, cell("B", row), value)
		row++
	}
	section := func(title string) {
		row++
		f.SetCellValue(sheet, cell("A", row), title)
		f.SetCellStyle(sheet, cell("A", row), cell("C", row), sectionStyle)
		f.MergeCell(sheet, cell("A", row), cell("C", row))
		row++
	}

	f.SetCellValue(sheet, cell("A", row), "Resmo Pipeline Report")
	f.SetCellStyle(sheet, cell("A", row), cell("C", row), titleStyle)
	f.MergeCell(sheet, cell("A", row), cell("C", row))
	row += 2

	label("Generated:", generatedAt.Format("2006-01-02 15:04:05"))
	label("Total Candidates:", s.TotalCandidates)
	label("Analyzed Candidates:", s.AnalyzedCandidates)
	label("Average Fit Score:", fmt.Sprintf("%.1f", s.AverageFitScore))
	label("Skill Checks Completed:", s.SkillChecksCompleted)
	label("Average Skill Check Score:", fmt.Sprintf("%.1f%%", s.AverageSkillCheck))

	section("Pipeline")
	for _, p := range s.Pipeline {
		f.SetCellValue(sheet, cell("A", row), string(p.Status))
		f.SetCellValue(sheet, cell("B", row), p.Count)
		f.SetCellValue(sheet, cell("C", row), fmt.Sprintf("%.1f%%", p.Percentage))
		row++
	}

	section("Fit Score Distribution")
	for _, b := range s.FitScores {
		label(b.Label, b.Count)
	}

	section("Experience Distribution")
	for _, b := range s.Experience {
		label(b.Label, b.Count)
	}

	section("Top Skills")
	for _, sk := range s.TopSkills {
		label(sk.Skill, sk.Count)
	}

	section("Roles")
	for _, r := range s.Roles {
		f.SetCellValue(sheet, cell("A", row), r.Role)
		f.SetCellValue(sheet, cell("B", row), r.Count)
		f.SetCellValue(sheet, cell("C", row), fmt.Sprintf("%.1f%%", r.Percentage))
		row++
	}

	return nil
}

// createPipelineSheet writes one row per candidate, color-coded by status
func createPipelineSheet(f *excelize.File, candidates []*models.Candidate) error {
	sheet := pipelineSheet
	widths := map[string]float64{"A": 10, "B": 25, "C": 30, "D": 28, "E": 22, "F": 13, "G": 10, "H": 12, "I": 18, "J": 40}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	hStyle, err := headerStyle(f, 11, "center")
	if err != nil {
		return err
	}

	rowStyles := make(map[models.Status]int, len(statusColors))
	for status, color := range statusColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: thinBorder,
		})
		if err != nil {
			return err
		}
		rowStyles[status] = style
	}

	headers := []string{"ID", "Candidate", "Email", "Role", "Status", "Applied", "Fit Score", "Skill Check", "Recommended", "Top Skills"}
	for col, header := range headers {
		c := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheet, c, header)
		f.SetCellStyle(sheet, c, c, hStyle)
	}

	for i, c := range candidates {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), c.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), c.Name)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), c.Email)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), c.Role)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(c.Status))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), c.AppliedDate)
		if c.Analysis != nil {
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), c.Analysis.DisplayFitScore())
			f.SetCellValue(sheet, fmt.Sprintf("J%d", row), strings.Join(c.Analysis.Skills, ", "))
		}
		if c.SkillCheckScore != nil {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), fmt.Sprintf("%d%%", *c.SkillCheckScore))
		}
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), c.RecommendedAction)

		if style, ok := rowStyles[c.Status]; ok {
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("J%d", row), style)
		}
	}

	if len(candidates) > 0 {
		f.AutoFilter(sheet, fmt.Sprintf("A1:J%d", len(candidates)+1), []excelize.AutoFilterOptions{})
	}

	// Freeze top row
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}

// createAuditSheet writes every audit entry of every candidate
func createAuditSheet(f *excelize.File, candidates []*models.Candidate) error {
	sheet := auditSheet
	f.SetColWidth(sheet, "A", "A", 10)
	f.SetColWidth(sheet, "B", "B", 25)
	f.SetColWidth(sheet, "C", "C", 22)
	f.SetColWidth(sheet, "D", "D", 24)
	f.SetColWidth(sheet, "E", "E", 60)

	hStyle, err := headerStyle(f, 11, "center")
	if err != nil {
		return err
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	headers := []string{"ID", "Candidate", "Timestamp", "Action", "Details"}
	for col, header := range headers {
		c := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheet, c, header)
		f.SetCellStyle(sheet, c, c, hStyle)
	}

	row := 2
	for _, c := range candidates {
		for _, entry := range c.AuditLog {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), c.ID)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), c.Name)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), entry.Timestamp.UTC().Format(time.RFC3339))
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), entry.Action)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), entry.Details)
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), wrapStyle)
			row++
		}
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}
