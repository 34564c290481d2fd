package models

// VideoExport bundles a video with its discussion for writing to disk.
type VideoExport struct {
	Video    Video     `json:"video"`
	Messages []Message `json:"messages"`
}

// VideoExportResult is the outcome of exporting one video.
type VideoExportResult struct {
	VideoID int
	Title   string
	Files   []string
	Error   error
}

// Success reports whether the export wrote its files.
func (r VideoExportResult) Success() bool {
	return r.Error == nil
}

// BulkExportResult summarizes a multi-video export.
type BulkExportResult struct {
	Format            string
	TotalVideos       int
	SuccessfulExports int
	FailedExports     int
	Results           []VideoExportResult
	OutputDirectory   string
	ManifestPath      string
}
