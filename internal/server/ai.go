package server

import (
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/bitesized/internal/models"
)

// CannedSummary returns the summary served when no language model is configured.
func CannedSummary(req models.SummaryRequest) models.SummaryResponse {
	covered := strings.Join(req.Tags, ", ")
	if covered == "" {
		covered = "core ideas"
	}

	points := []string{}
	for _, tag := range req.Tags[:min(3, len(req.Tags))] {
		points = append(points, "Key idea: "+tag)
	}
	if len(points) == 0 {
		points = append(points, "Key idea: core concept")
	}

	return models.SummaryResponse{
		Summary:   fmt.Sprintf("%s covers %s in under 90 seconds.", req.Title, covered),
		KeyPoints: points,
	}
}

// CannedQuiz returns one generic question per leading tag (at most two), or one for the topic when untagged.
func CannedQuiz(req models.QuizRequest) []models.QuizQuestion {
	n := min(2, len(req.Tags))
	if n == 0 {
		n = 1
	}

	questions := make([]models.QuizQuestion, 0, n)
	for range n {
		questions = append(questions, models.QuizQuestion{
			Question: fmt.Sprintf("What is a core takeaway from %s?", req.Topic),
			Options:  []string{"Definition", "Example", "Application", "Irrelevant"},
			Answer:   "Application",
		})
	}
	return questions
}

// Recommend ranks videos by tag overlap with recentTags plus a small popularity bonus and returns up to limit ids.
func Recommend(videos []models.Video, recentTags []string, limit int) []string {
	recent := make(map[string]bool, len(recentTags))
	for _, tag := range recentTags {
		recent[strings.ToLower(tag)] = true
	}

	type scored struct {
		id    string
		score float64
	}
	ranked := make([]scored, 0, len(videos))
	for _, v := range videos {
		overlap := 0
		seen := map[string]bool{}
		for _, tag := range v.Tags {
			tag = strings.ToLower(tag)
			if recent[tag] && !seen[tag] {
				overlap++
			}
			seen[tag] = true
		}
		trend := float64(v.Views)*0.001 + float64(v.Likes)*0.01
		ranked = append(ranked, scored{id: v.ID, score: float64(overlap) + trend})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	ids := make([]string, 0, min(limit, len(ranked)))
	for _, r := range ranked[:min(limit, len(ranked))] {
		ids = append(ids, r.id)
	}
	return ids
}
