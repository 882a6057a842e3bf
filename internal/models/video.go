package models

import "strings"

// DemoPrefix marks ids of the built-in demo catalog.
const DemoPrefix = "demo-"

// Video is a short lesson as returned by the backend.
type Video struct {
	ID          string   `json:"id"`
	CreatorID   string   `json:"creator_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	SkillLevel  string   `json:"skill_level"`
	VideoURL    string   `json:"video_url"`
	Views       int      `json:"views"`
	Likes       int      `json:"likes"`
}

// IsDemo reports whether the video belongs to the built-in demo catalog.
func (v Video) IsDemo() bool {
	return IsDemoID(v.ID)
}

// IsDemoID reports whether id names a demo video.
func IsDemoID(id string) bool {
	return strings.HasPrefix(id, DemoPrefix)
}

// PlaylistEntry is a snapshot of a video's displayable fields taken when it was saved.
type PlaylistEntry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	VideoURL    string   `json:"video_url"`
}

// Entry snapshots v for the playlist.
func (v Video) Entry() PlaylistEntry {
	tags := make([]string, len(v.Tags))
	copy(tags, v.Tags)
	return PlaylistEntry{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		Tags:        tags,
		VideoURL:    v.VideoURL,
	}
}

// Course groups videos into an ordered sequence.
type Course struct {
	ID               string   `json:"id"`
	CreatorID        string   `json:"creator_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	VideoIDs         []string `json:"video_ids"`
	LearnersEnrolled int      `json:"learners_enrolled"`
}

// CourseProgress counts completed lessons for one learner in one course.
type CourseProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// ProgressUpdate marks a video as completed (or not) for a user.
type ProgressUpdate struct {
	UserID    string  `json:"user_id"`
	CourseID  *string `json:"course_id"`
	VideoID   string  `json:"video_id"`
	Completed bool    `json:"completed"`
}

// UploadMetadata holds the form fields sent alongside an uploaded video file.
type UploadMetadata struct {
	Title       string
	Description string
	Tags        []string
	SkillLevel  string
}
