package models

// SummaryRequest asks the backend to summarize a video.
type SummaryRequest struct {
	Title      string   `json:"title"`
	Tags       []string `json:"tags"`
	Transcript *string  `json:"transcript"`
}

// SummaryResponse is an AI generated summary with key points.
type SummaryResponse struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// QuizRequest asks the backend for quiz questions on a topic.
type QuizRequest struct {
	Topic string   `json:"topic"`
	Tags  []string `json:"tags"`
}

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// QuizResponse wraps generated questions.
type QuizResponse struct {
	Questions []QuizQuestion `json:"questions"`
}

// RecommendationRequest sends recently seen tags as a feed hint.
type RecommendationRequest struct {
	RecentTags []string `json:"recent_tags"`
}

// RecommendationResponse lists recommended video ids, best first.
type RecommendationResponse struct {
	VideoIDs []string `json:"video_ids"`
}

// TokenResponse is returned by the backend login endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RemoteUser is returned by the backend register endpoint.
type RemoteUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
