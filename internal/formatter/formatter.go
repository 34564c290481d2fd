// package formatter exports a video and its discussion to CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

const noTranscription = "No transcription available"

// Formats lists the accepted values for an export format flag.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ExportToCSV converts a discussion to CSV with columns: ID, Author, Parent ID, Created At, Content
func ExportToCSV(export *models.VideoExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Author", "Parent ID", "Created At", "Content"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range export.Messages {
		record := []string{
			strconv.Itoa(m.ID),
			m.Author(),
			optionalID(m.ParentID),
			formatTime(m.CreatedAt.Time),
			m.Content,
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

// ExportToMarkdown converts a video and its discussion to Markdown with an optional thumbnail image
func ExportToMarkdown(export *models.VideoExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	v := export.Video

	buf.WriteString(fmt.Sprintf("# %s\n\n", titleOf(v)))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Thumbnail](%s)\n\n", imageFilename))
	}

	if v.Category != "" {
		buf.WriteString(fmt.Sprintf("**Category**: %s\n", v.Category))
	}
	if watch, err := shared.WatchURL(v.YouTubeID); err == nil {
		buf.WriteString(fmt.Sprintf("**Watch**: <%s>\n", watch))
	}
	if !v.CreatedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Added**: %s\n", formatTime(v.CreatedAt.Time)))
	}
	buf.WriteString(fmt.Sprintf("**Messages**: %d\n\n", len(export.Messages)))

	if v.Description != "" {
		buf.WriteString(fmt.Sprintf("%s\n\n", v.Description))
	}

	buf.WriteString("## Transcription\n\n")
	if text := v.TranscriptText(); text != "" {
		buf.WriteString(text + "\n\n")
	} else {
		buf.WriteString(noTranscription + "\n\n")
	}

	buf.WriteString("## Discussion\n\n")
	if len(export.Messages) == 0 {
		buf.WriteString("No messages yet.\n")
	}
	for _, m := range export.Messages {
		indent := ""
		if m.ParentID != nil {
			indent = "  "
		}
		buf.WriteString(fmt.Sprintf("%s- **%s**: %s\n", indent, m.Author(), oneLine(m.Content)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a video and its discussion to plain text
func ExportToText(export *models.VideoExport) ([]byte, error) {
	var buf bytes.Buffer
	v := export.Video

	buf.WriteString(fmt.Sprintf("Video: %s\n", titleOf(v)))
	if v.Category != "" {
		buf.WriteString(fmt.Sprintf("Category: %s\n", v.Category))
	}
	if v.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", v.Description))
	}
	buf.WriteString(fmt.Sprintf("Messages: %d\n\n", len(export.Messages)))

	buf.WriteString("Transcription:\n")
	if text := v.TranscriptText(); text != "" {
		buf.WriteString(text + "\n\n")
	} else {
		buf.WriteString(noTranscription + "\n\n")
	}

	for i, m := range export.Messages {
		buf.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, m.Author(), oneLine(m.Content)))
	}

	return buf.Bytes(), nil
}

// ThumbnailURL returns the high quality thumbnail for a YouTube video id
func ThumbnailURL(youtubeID string) string {
	if youtubeID == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + youtubeID + "/hqdefault.jpg"
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of video metadata (without the transcription)
func ToMetadataJSON(video models.Video) ([]byte, error) {
	video.Transcription = nil
	return shared.MarshalJSON(video, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	MessagesFile string
	MetadataFile string
}

// WriteCSVExport exports a discussion to CSV with an accompanying metadata JSON file.
//
// Defaults to "video_{id}" as the base filename & creates {base}_messages.csv and {base}_metadata.json
func WriteCSVExport(export *models.VideoExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = baseName(export.Video)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	messagesFile := baseFilepath + "_messages.csv"
	if err := os.WriteFile(messagesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Video)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		MessagesFile: messagesFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Thumbnail string
}

// WriteMarkdownExport exports a video to Markdown in a dedicated directory.
//
// Directory name defaults to "video_{id}". When imageURL is set the image is saved as thumbnail.jpg;
// a failed download only drops the image.
func WriteMarkdownExport(export *models.VideoExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = baseName(export.Video)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var thumbnailFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download thumbnail: %v\n", err)
		} else {
			thumbnailFilename = "thumbnail.jpg"
			thumbnailPath := filepath.Join(outputDir, thumbnailFilename)
			if err := os.WriteFile(thumbnailPath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save thumbnail: %v\n", err)
				thumbnailFilename = ""
			} else {
				result.Thumbnail = thumbnailPath
				result.Files = append(result.Files, thumbnailPath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, thumbnailFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a video to plain text.
//
// Defaults to video_{id}.txt as the filename.
func WriteTextExport(export *models.VideoExport, path string) (string, error) {
	if path == "" {
		path = baseName(export.Video) + ".txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes the video and discussion as indented JSON.
func WriteJSONExport(export *models.VideoExport, path string) (string, error) {
	if path == "" {
		path = baseName(export.Video) + ".json"
	}

	data, err := shared.MarshalJSON(export, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}

// WriteExport writes export into outputDir in the given format and returns the files created.
//
// thumbnails enables downloading the YouTube thumbnail for Markdown exports.
func WriteExport(export *models.VideoExport, format, outputDir string, thumbnails bool) ([]string, error) {
	base := baseName(export.Video)

	switch format {
	case FormatCSV:
		res, err := WriteCSVExport(export, filepath.Join(outputDir, base))
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		return []string{res.MessagesFile, res.MetadataFile}, nil
	case FormatMarkdown:
		imageURL := ""
		if thumbnails {
			imageURL = ThumbnailURL(export.Video.YouTubeID)
		}
		res, err := WriteMarkdownExport(export, filepath.Join(outputDir, base), imageURL)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		return res.Files, nil
	case FormatText:
		path, err := WriteTextExport(export, filepath.Join(outputDir, base+".txt"))
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		return []string{path}, nil
	case FormatJSON, "":
		path, err := WriteJSONExport(export, filepath.Join(outputDir, base+".json"))
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

// Render returns a single-document rendering of export for printing to a terminal.
func Render(export *models.VideoExport, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, "")
	case FormatText:
		return ExportToText(export)
	case FormatJSON, "":
		return shared.MarshalJSON(export, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

type manifestEntry struct {
	VideoID int      `json:"video_id"`
	Title   string   `json:"title"`
	Status  string   `json:"status"`
	Files   []string `json:"files,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type manifest struct {
	Format            string          `json:"format"`
	ExportedAt        time.Time       `json:"exported_at"`
	TotalVideos       int             `json:"total_videos"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Videos            []manifestEntry `json:"videos"`
}

// WriteBulkExportManifest writes a JSON summary of a bulk export to path.
func WriteBulkExportManifest(result *models.BulkExportResult, path string) error {
	m := manifest{
		Format:            result.Format,
		ExportedAt:        time.Now().UTC(),
		TotalVideos:       result.TotalVideos,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		Videos:            make([]manifestEntry, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		entry := manifestEntry{VideoID: r.VideoID, Title: r.Title, Files: r.Files, Status: "success"}
		if r.Error != nil {
			entry.Status = "failed"
			entry.Error = r.Error.Error()
		}
		m.Videos = append(m.Videos, entry)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func baseName(v models.Video) string {
	return fmt.Sprintf("video_%d", v.ID)
}

func titleOf(v models.Video) string {
	if strings.TrimSpace(v.Title) == "" {
		return fmt.Sprintf("Video %d", v.ID)
	}
	return v.Title
}

func optionalID(id *int) string {
	if id == nil {
		return ""
	}
	return strconv.Itoa(*id)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// oneLine folds newlines so each message stays on its own list line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
