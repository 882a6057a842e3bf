package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/bitesized/internal/formatter"
	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/shared"
	"github.com/desertthunder/bitesized/internal/tasks"
	"github.com/urfave/cli/v3"
)

var feedBanners = map[tasks.FeedSource]string{
	tasks.FeedRecommended: "Recommended for you",
	tasks.FeedLatest:      "Latest videos",
	tasks.FeedDemo:        "Backend unavailable: showing demo lessons",
}

// Feed shows recommended lessons, the latest videos, or the demo catalog when the backend is unreachable.
func (r *Runner) Feed(ctx context.Context, cmd *cli.Command) error {
	progressCh, wait := r.track()
	feed, err := r.engine.LoadFeed(ctx, progressCh)
	wait()
	if err != nil {
		return err
	}

	return r.render(cmd, feed, func() error {
		r.writePlainHeader(feedBanners[feed.Source])
		return r.writePlain("%s", formatter.FeedText(feed.Videos))
	})
}

var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
}

// detectVideoType guesses a content type from the file extension, preferring the known video types over the
// system MIME table.
func detectVideoType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := videoExtensions[ext]; ok {
		return t
	}
	t, _, _ := strings.Cut(mime.TypeByExtension(ext), ";")
	return t
}

// lessonOutput is the JSON shape of a lesson and the actions run against it.
type lessonOutput struct {
	*tasks.LessonResult

	Summary        *models.SummaryResponse `json:"summary,omitempty"`
	Quiz           []models.QuizQuestion   `json:"quiz,omitempty"`
	PlaylistChange string                  `json:"playlist_change,omitempty"` // "saved" or "removed"
	Completion     *tasks.CompletionResult `json:"completion,omitempty"`
	Errors         map[string]string       `json:"errors,omitempty"`
}

// Learn opens a lesson and optionally fetches its summary and quiz, toggles it in the playlist, marks it
// complete or opens it in a browser.
//
// Failures of the optional actions are reported alongside the lesson rather than aborting it.
func (r *Runner) Learn(ctx context.Context, cmd *cli.Command) error {
	lesson, err := r.engine.LoadLesson(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	out := lessonOutput{LessonResult: lesson, Errors: map[string]string{}}
	video := lesson.Video

	if cmd.Bool("summary") {
		if out.Summary, err = r.engine.Summary(ctx, video); err != nil {
			out.Errors["summary"] = err.Error()
		}
	}
	if cmd.Bool("quiz") {
		if out.Quiz, err = r.engine.Quiz(ctx, video); err != nil {
			out.Errors["quiz"] = err.Error()
		}
	}
	if cmd.Bool("save") {
		if saved, err := r.engine.ToggleSaved(ctx, video); err != nil {
			out.Errors["save"] = err.Error()
		} else {
			out.Saved = saved
			out.PlaylistChange = "removed"
			if saved {
				out.PlaylistChange = "saved"
			}
		}
	}
	if cmd.Bool("complete") {
		result := r.engine.MarkComplete(ctx, video)
		out.Completion = &result
	}
	if cmd.Bool("open") {
		target, err := shared.ResolveVideoURL(r.config.API.BaseURL, video.VideoURL)
		if err == nil {
			err = r.openURL(target)
		}
		if err != nil {
			out.Errors["open"] = err.Error()
		}
	}
	if len(out.Errors) == 0 {
		out.Errors = nil
	}

	return r.render(cmd, out, func() error {
		if lesson.Source == tasks.LessonFallback {
			r.writePlain("Lesson unavailable, showing a demo lesson instead\n\n")
		}
		r.writePlain("%s", formatter.VideoText(video))
		switch out.PlaylistChange {
		case "saved":
			r.writePlain("✓ Saved to playlist\n")
		case "removed":
			r.writePlain("✓ Removed from playlist\n")
		default:
			if lesson.Saved {
				r.writePlain("★ In your playlist\n")
			}
		}
		if out.Summary != nil {
			r.writePlainln("%s", formatter.SummaryText(*out.Summary))
		}
		if len(out.Quiz) > 0 {
			r.writePlainln("%s", formatter.QuizText(out.Quiz, cmd.Bool("reveal")))
		}
		if out.Completion != nil {
			switch out.Completion.Outcome {
			case tasks.CompletionRecorded:
				r.writePlain("✓ Marked as completed\n")
			default:
				r.writePlain("Progress not recorded: %s\n", out.Completion.Reason)
			}
		}
		for _, action := range []string{"summary", "quiz", "save", "open"} {
			if msg, ok := out.Errors[action]; ok {
				r.writePlain("✗ %s failed: %s\n", action, msg)
			}
		}
		return nil
	})
}

// Course shows a course, the lessons that could be loaded and the learner's progress.
func (r *Runner) Course(ctx context.Context, cmd *cli.Command) error {
	progressCh, wait := r.track()
	result, err := r.engine.LoadCourse(ctx, cmd.StringArg("id"), progressCh)
	wait()
	if err != nil {
		return err
	}

	return r.render(cmd, result, func() error {
		r.writePlain("%s", formatter.CourseText(*result.Course, result.Videos, result.Progress))
		if len(result.Missing) > 0 {
			r.writePlain("\n%d lesson(s) unavailable: %s\n", len(result.Missing), strings.Join(result.Missing, ", "))
		}
		return nil
	})
}

// Upload sends a video file to the backend as the logged in creator.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	contentType := cmd.String("type")
	if contentType == "" {
		contentType = detectVideoType(path)
	}

	var tags []string
	for _, tag := range cmd.StringSlice("tag") {
		for t := range strings.SplitSeq(tag, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	progressCh, wait := r.track()
	video, err := r.engine.Upload(ctx, tasks.UploadInput{
		UploadMetadata: models.UploadMetadata{
			Title:       cmd.String("title"),
			Description: cmd.String("description"),
			Tags:        tags,
			SkillLevel:  cmd.String("skill-level"),
		},
		Filename:    filepath.Base(path),
		ContentType: contentType,
		File:        f,
	}, progressCh)
	wait()
	if err != nil {
		return err
	}

	return r.render(cmd, video, func() error {
		return r.writePlain("✓ Uploaded %q (id: %s)\n", video.Title, video.ID)
	})
}
