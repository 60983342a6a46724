package loader

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// Source type tags stored on every chunk.
const (
	TypePDF         = "pdf"
	TypeDocx        = "docx"
	TypePptx        = "pptx"
	TypeSpreadsheet = "spreadsheet"
	TypeMarkdown    = "markdown"
	TypeText        = "text"
	TypeAudio       = "audio"
)

// Document is raw extracted content ready for ingestion.
type Document struct {
	Content    string
	SourceType string
}

// Transcriber converts an audio file to timestamped text. Transcription
// models live outside this process; this is the seam they plug into.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

// Load extracts plain text content from a file, dispatching on its
// extension.
func Load(filePath string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return loadPDF(filePath)
	case ".docx":
		return loadDOCX(filePath)
	case ".pptx":
		return loadPPTX(filePath)
	case ".xlsx":
		return loadXLSX(filePath)
	case ".ods":
		return loadODS(filePath)
	case ".md", ".markdown":
		return loadMarkdown(filePath)
	case ".txt", ".csv", ".log":
		return loadText(filePath)
	default:
		return Document{}, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func loadPDF(filePath string) (Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return Document{}, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return Document{}, err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return Document{}, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) != "" {
			pages = append(pages, pageText)
		}
	}
	return Document{Content: strings.Join(pages, "\n\n"), SourceType: TypePDF}, nil
}

func loadDOCX(filePath string) (Document, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return Document{}, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var paragraphs []string
	for _, p := range strings.Split(content, "\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return Document{Content: strings.Join(paragraphs, "\n"), SourceType: TypeDocx}, nil
}

func loadPPTX(filePath string) (Document, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	var slides []string
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideText := extractTextFromXML(string(data))
		if strings.TrimSpace(slideText) != "" {
			slides = append(slides, slideText)
		}
	}
	return Document{Content: strings.Join(slides, "\n\n"), SourceType: TypePptx}, nil
}

func loadXLSX(filePath string) (Document, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return Document{}, err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		fmt.Fprintf(&text, "## Sheet: %s\n", sheet.Name)
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
	}
	return Document{Content: text.String(), SourceType: TypeSpreadsheet}, nil
}

func loadODS(filePath string) (Document, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		fmt.Fprintf(&text, "## Sheet: %s\n", sheetName)
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
	}
	return Document{Content: text.String(), SourceType: TypeSpreadsheet}, nil
}

func loadMarkdown(filePath string) (Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Document{}, err
	}
	content, err := markdownToText(data)
	if err != nil {
		return Document{}, err
	}
	return Document{Content: content, SourceType: TypeMarkdown}, nil
}

func loadText(filePath string) (Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Document{}, err
	}
	return Document{Content: string(data), SourceType: TypeText}, nil
}

// extractTextFromXML pulls the text runs out of a slide's XML.
func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}
