package tasks

import "github.com/desertthunder/bitesized/internal/models"

var demoCatalog = []models.Video{
	{
		ID:          "demo-1",
		CreatorID:   "demo",
		Title:       "Quick neural networks intuition",
		Description: "A 60-second visual explanation of perceptrons.",
		Tags:        []string{"ai", "neural-networks", "shorts"},
		SkillLevel:  "intermediate",
		VideoURL:    "https://www.youtube.com/embed/aircAruvnKk",
		Views:       1280,
		Likes:       240,
	},
	{
		ID:          "demo-2",
		CreatorID:   "demo",
		Title:       "Big O in 60 seconds",
		Description: "Learn Big O notation with quick visuals.",
		Tags:        []string{"algorithms", "complexity", "shorts"},
		SkillLevel:  "beginner",
		VideoURL:    "https://www.youtube.com/embed/D6xkbGLQesk",
		Views:       980,
		Likes:       180,
	},
	{
		ID:          "demo-3",
		CreatorID:   "demo",
		Title:       "JavaScript closures explained",
		Description: "Understand closures with a tiny example.",
		Tags:        []string{"javascript", "functions"},
		SkillLevel:  "intermediate",
		VideoURL:    "https://www.youtube.com/embed/3a0I8ICR1Vg",
		Views:       760,
		Likes:       150,
	},
}

// DemoVideos returns a copy of the built-in demo catalog.
func DemoVideos() []models.Video {
	videos := make([]models.Video, len(demoCatalog))
	for i, v := range demoCatalog {
		v.Tags = append([]string(nil), v.Tags...)
		videos[i] = v
	}
	return videos
}

// DemoVideo looks up a demo video by id.
func DemoVideo(id string) (models.Video, bool) {
	for _, v := range DemoVideos() {
		if v.ID == id {
			return v, true
		}
	}
	return models.Video{}, false
}

// DegradeFeed picks what the feed shows: the backend videos when there are any, otherwise the demo catalog.
func DegradeFeed(backend []models.Video, source FeedSource) FeedResult {
	if len(backend) > 0 {
		return FeedResult{Videos: backend, Source: source}
	}
	return FeedResult{Videos: DemoVideos(), Source: FeedDemo}
}
