package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/bitesized/internal/formatter"
	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/shared"
)

// ExportOpts contains configuration for playlist exports.
type ExportOpts struct {
	Formats    []formatter.Format // Formats to write (default: json)
	OutputDir  string             // Output directory (default: bitesized_export_{epoch})
	NumWorkers int                // Concurrent workers (default: 3, max: 5)
}

// FormatExportResult is the outcome of writing one format.
type FormatExportResult struct {
	Format  formatter.Format `json:"format"`
	Files   []string         `json:"files"`
	Success bool             `json:"success"`
	Error   error            `json:"-"`
	Message string           `json:"error,omitempty"`
}

// ExportResult summarizes a playlist export.
type ExportResult struct {
	Entries         int                  `json:"entries"`
	OutputDirectory string               `json:"output_directory"`
	Successful      int                  `json:"successful"`
	Failed          int                  `json:"failed"`
	Results         []FormatExportResult `json:"results"`
	ManifestPath    string               `json:"manifest_path,omitempty"`
}

// ExportPlaylist writes the saved lessons in every requested format using a small worker pool,
// then writes export_manifest.json summarizing the run.
//
// A failure in one format does not stop the others.
func (e *Engine) ExportPlaylist(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	entries, err := e.playlist.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}

	if len(opts.Formats) == 0 {
		opts.Formats = []formatter.Format{formatter.FormatJSON}
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("bitesized_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 5 {
		opts.NumWorkers = 5
	}
	opts.Formats = uniqueFormats(opts.Formats)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Entries:         len(entries),
		OutputDirectory: opts.OutputDir,
		Results:         make([]FormatExportResult, 0, len(opts.Formats)),
	}

	jobs := make(chan formatter.Format, len(opts.Formats))
	results := make(chan FormatExportResult, len(opts.Formats))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, entries, opts.OutputDir, jobs, results)
	}

	for _, f := range opts.Formats {
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			e.sendProgress(progress, exportCompletedUpdate(completed, len(opts.Formats), string(res.Format), len(res.Files)))
		} else {
			result.Failed++
			e.sendProgress(progress, exportFailedUpdate(completed, len(opts.Formats), string(res.Format), res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// uniqueFormats drops repeated formats, keeping the first occurrence. Each format maps to one file.
func uniqueFormats(formats []formatter.Format) []formatter.Format {
	seen := make(map[formatter.Format]bool, len(formats))
	unique := make([]formatter.Format, 0, len(formats))
	for _, f := range formats {
		if !seen[f] {
			seen[f] = true
			unique = append(unique, f)
		}
	}
	return unique
}

// exportWorker writes formats from the jobs channel until it closes or ctx is done.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	entries []models.PlaylistEntry,
	dir string,
	jobs <-chan formatter.Format,
	results chan<- FormatExportResult,
) {
	defer wg.Done()

	for f := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := FormatExportResult{Format: f, Files: []string{}}
		path, err := formatter.WriteExport(entries, f, dir)
		if err != nil {
			res.Error = err
			res.Message = err.Error()
		} else {
			res.Files = append(res.Files, path)
			res.Success = true
		}
		results <- res
	}
}
