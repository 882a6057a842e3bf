// package formatter renders saved lessons and lesson content as CSV, Markdown, HTML, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/shared"
	"github.com/yuin/goldmark"
)

// Format is a playlist export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatHTML     Format = "html"
)

// PlaylistTitle heads Markdown, HTML and text exports.
const PlaylistTitle = "Saved lessons"

// Formats lists every supported export format.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText, FormatHTML}
}

// ParseFormat accepts a format name or a common alias ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	case FormatHTML:
		return ".html"
	default:
		return ".json"
	}
}

// ExportToCSV converts playlist entries to CSV with columns: ID, Title, Description, Tags, VideoURL
func ExportToCSV(entries []models.PlaylistEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Description", "Tags", "VideoURL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		record := []string{
			entry.ID,
			entry.Title,
			entry.Description,
			strings.Join(entry.Tags, ";"),
			entry.VideoURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts playlist entries to a Markdown list linking each lesson.
func ExportToMarkdown(entries []models.PlaylistEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", PlaylistTitle))
	buf.WriteString(fmt.Sprintf("**Lessons**: %d\n\n", len(entries)))

	if len(entries) == 0 {
		buf.WriteString("_Nothing saved yet._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("## Lessons\n\n")
	for i, entry := range entries {
		title := entry.Title
		if entry.VideoURL != "" {
			title = fmt.Sprintf("[%s](%s)", entry.Title, entry.VideoURL)
		}
		buf.WriteString(fmt.Sprintf("%d. %s", i+1, title))
		if len(entry.Tags) > 0 {
			buf.WriteString(fmt.Sprintf(" `%s`", strings.Join(entry.Tags, ", ")))
		}
		buf.WriteString("\n")
		if entry.Description != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", entry.Description))
		}
	}

	return buf.Bytes(), nil
}

// ExportToHTML renders the Markdown export as a standalone HTML page.
func ExportToHTML(entries []models.PlaylistEntry) ([]byte, error) {
	md, err := ExportToMarkdown(entries)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := goldmark.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("failed to render Markdown: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	buf.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(PlaylistTitle)))
	buf.WriteString("</head>\n<body>\n")
	buf.Write(body.Bytes())
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

// ExportToText converts playlist entries to plain text
func ExportToText(entries []models.PlaylistEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s: %d\n\n", PlaylistTitle, len(entries)))
	for i, entry := range entries {
		buf.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, entry.Title, entry.ID))
		if entry.VideoURL != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", entry.VideoURL))
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes playlist entries in the same shape they are stored in.
func ExportToJSON(entries []models.PlaylistEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.PlaylistEntry{}
	}
	return shared.MarshalJSON(entries, true)
}

// Export renders entries in format f.
func Export(entries []models.PlaylistEntry, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(entries)
	case FormatMarkdown:
		return ExportToMarkdown(entries)
	case FormatText:
		return ExportToText(entries)
	case FormatHTML:
		return ExportToHTML(entries)
	case FormatJSON:
		return ExportToJSON(entries)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteExport writes entries in format f to {dir}/playlist{ext} and returns the file path.
//
// dir defaults to the working directory and is created when missing.
func WriteExport(entries []models.PlaylistEntry, f Format, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := Export(entries, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	path := filepath.Join(dir, "playlist"+f.Extension())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}
