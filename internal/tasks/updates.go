package tasks

import (
	"fmt"

	"github.com/desertthunder/bitesized/internal/models"
)

// ProgressUpdate represents a progress event during a multi-step flow.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Flow phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Flow phase enumeration
type Phase int

const (
	ReadHistory Phase = iota
	FetchRecommendations
	FetchVideos
	FetchFeed
	FetchCourse
	FetchProgress
	UploadVideo
	Authenticate
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case ReadHistory:
		return "read_history"
	case FetchRecommendations:
		return "fetch_recommendations"
	case FetchVideos:
		return "fetch_videos"
	case FetchFeed:
		return "fetch_feed"
	case FetchCourse:
		return "fetch_course"
	case FetchProgress:
		return "fetch_progress"
	case UploadVideo:
		return "upload_video"
	case Authenticate:
		return "authenticate"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

func readHistoryUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadHistory,
		Step:    1,
		Total:   1,
		Message: "Reading recently seen tags...",
	}
}

func recommendationsUpdate(tags []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecommendations,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Asking for recommendations from %d tags...", len(tags)),
		Data:    tags,
	}
}

func fetchVideoUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchVideos,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching video %s...", id),
	}
}

func fetchFeedUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeed,
		Step:    1,
		Total:   1,
		Message: "Fetching latest videos...",
	}
}

func fetchCourseUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCourse,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching course %s...", id),
	}
}

func courseLoadedUpdate(course *models.Course) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCourse,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found course: %s (%d videos)", course.Title, len(course.VideoIDs)),
		Data:    course,
	}
}

func fetchProgressUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProgress,
		Step:    1,
		Total:   1,
		Message: "Fetching course progress...",
	}
}

func uploadUpdate(filename string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadVideo,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Uploading %s...", filename),
	}
}

func authenticateUpdate(step, total int, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticate,
		Step:    step,
		Total:   total,
		Message: message,
	}
}

func exportCompletedUpdate(step, total int, format string, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ Exported %s (%d files)", format, files),
	}
}

func exportFailedUpdate(step, total int, format string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✗ Failed: %s - %v", format, err),
	}
}
