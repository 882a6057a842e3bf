package formatter

import (
	"fmt"
	"strings"

	"github.com/desertthunder/bitesized/internal/models"
)

// VideoText renders a lesson header.
func VideoText(v models.Video) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s (%s)\n", v.Title, v.ID))
	if v.Description != "" {
		b.WriteString(v.Description + "\n")
	}
	if len(v.Tags) > 0 {
		b.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(v.Tags, ", ")))
	}
	if v.SkillLevel != "" {
		b.WriteString(fmt.Sprintf("Level: %s\n", v.SkillLevel))
	}
	b.WriteString(fmt.Sprintf("Views: %d  Likes: %d\n", v.Views, v.Likes))
	if v.VideoURL != "" {
		b.WriteString(fmt.Sprintf("Watch: %s\n", v.VideoURL))
	}
	return b.String()
}

// FeedText renders one line per video.
func FeedText(videos []models.Video) string {
	var b strings.Builder
	for i, v := range videos {
		b.WriteString(fmt.Sprintf("%d. %s [%s]", i+1, v.Title, v.ID))
		if len(v.Tags) > 0 {
			b.WriteString(" #" + strings.Join(v.Tags, " #"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// SummaryText renders a summary and its key points as a bulleted list.
func SummaryText(s models.SummaryResponse) string {
	var b strings.Builder
	b.WriteString("Summary\n")
	b.WriteString(s.Summary + "\n")
	if len(s.KeyPoints) > 0 {
		b.WriteString("\nKey points\n")
		for _, point := range s.KeyPoints {
			b.WriteString(fmt.Sprintf("  • %s\n", point))
		}
	}
	return b.String()
}

// QuizText renders numbered questions with lettered options. The answer is shown when reveal is set.
func QuizText(questions []models.QuizQuestion, reveal bool) string {
	if len(questions) == 0 {
		return "No quiz questions.\n"
	}

	var b strings.Builder
	for i, q := range questions {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, q.Question))
		for j, opt := range q.Options {
			b.WriteString(fmt.Sprintf("   %c) %s\n", 'a'+rune(j%26), opt))
		}
		if reveal {
			b.WriteString(fmt.Sprintf("   Answer: %s\n", q.Answer))
		}
	}
	return b.String()
}

// CourseText renders a course, its fetched videos and progress when known.
func CourseText(course models.Course, videos []models.Video, progress *models.CourseProgress) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s (%s)\n", course.Title, course.ID))
	if course.Description != "" {
		b.WriteString(course.Description + "\n")
	}
	b.WriteString(fmt.Sprintf("Learners enrolled: %d\n", course.LearnersEnrolled))
	if progress != nil {
		b.WriteString(fmt.Sprintf("Progress: %d/%d completed\n", progress.Completed, progress.Total))
	}
	b.WriteString("\n")
	if len(videos) == 0 {
		b.WriteString("No lessons available.\n")
		return b.String()
	}
	b.WriteString(FeedText(videos))
	return b.String()
}
