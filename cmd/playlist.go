package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/bitesized/internal/formatter"
	"github.com/desertthunder/bitesized/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistList shows saved lessons, oldest first.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.engine.Playlist(ctx)
	if err != nil {
		return err
	}

	return r.render(cmd, entries, func() error {
		if len(entries) == 0 {
			return r.writePlain("No saved lessons\n")
		}
		r.writePlainHeader(fmt.Sprintf("Saved lessons (%d)", len(entries)))
		for i, entry := range entries {
			r.writePlain("%d. %s [%s]\n", i+1, entry.Title, entry.ID)
			if len(entry.Tags) > 0 {
				r.writePlain("   #%s\n", strings.Join(entry.Tags, " #"))
			}
		}
		return nil
	})
}

// PlaylistToggle saves a lesson, or removes it when it is already saved.
func (r *Runner) PlaylistToggle(ctx context.Context, cmd *cli.Command) error {
	video, err := r.engine.ResolveVideo(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	saved, err := r.engine.ToggleSaved(ctx, *video)
	if err != nil {
		return err
	}
	if saved {
		return r.writePlain("✓ Saved %q to playlist\n", video.Title)
	}
	return r.writePlain("✓ Removed %q from playlist\n", video.Title)
}

// PlaylistClear removes every saved lesson.
func (r *Runner) PlaylistClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.engine.ClearPlaylist(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Playlist cleared\n")
}

// PlaylistExport writes the saved lessons to one or more formats concurrently.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	var formats []formatter.Format
	for _, value := range cmd.StringSlice("format") {
		f, err := formatter.ParseFormat(value)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	progressCh, wait := r.track()
	result, err := r.engine.ExportPlaylist(ctx, progressCh, tasks.ExportOpts{
		Formats:    formats,
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: cmd.Int("workers"),
	})
	wait()
	if err != nil {
		return err
	}

	return r.render(cmd, result, func() error {
		r.writePlainHeader("Export Summary")
		r.writePlain("Lessons:   %d\n", result.Entries)
		r.writePlain("Directory: %s\n", result.OutputDirectory)
		r.writePlain("Succeeded: %d, Failed: %d\n\n", result.Successful, result.Failed)
		for _, fr := range result.Results {
			if fr.Success {
				r.writePlain("✓ %s: %s\n", fr.Format, strings.Join(fr.Files, ", "))
			} else {
				r.writePlain("✗ %s: %s\n", fr.Format, fr.Message)
			}
		}
		if result.ManifestPath != "" {
			r.writePlain("\nManifest: %s\n", result.ManifestPath)
		}
		return nil
	})
}

// History shows the recently seen tags that drive recommendations, oldest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	tags, err := r.engine.History(ctx)
	if err != nil {
		return err
	}

	return r.render(cmd, tags, func() error {
		if len(tags) == 0 {
			return r.writePlain("No history yet\n")
		}
		return r.writePlain("Recent topics: %s\n", strings.Join(tags, ", "))
	})
}
