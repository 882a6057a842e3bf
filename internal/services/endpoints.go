package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/desertthunder/bitesized/internal/models"
)

// SupportedVideoTypes lists the upload content types the backend accepts.
var SupportedVideoTypes = []string{"video/mp4", "video/webm", "video/quicktime"}

// UploadRequest is a video file plus its form fields.
type UploadRequest struct {
	models.UploadMetadata
	Filename    string
	ContentType string
	File        io.Reader
}

func escape(id string) string { return url.PathEscape(id) }

// Course fetches GET /courses/{id}.
func (c *Client) Course(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := c.Request(ctx, "/courses/"+escape(id), RequestOptions{}, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Video fetches GET /videos/{id}.
func (c *Client) Video(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	if err := c.Request(ctx, "/videos/"+escape(id), RequestOptions{}, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Feed fetches the latest videos from GET /videos/feed.
func (c *Client) Feed(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	if err := c.Request(ctx, "/videos/feed", RequestOptions{}, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// UploadVideo posts a multipart form to POST /videos/upload with token as the bearer credential.
func (c *Client) UploadVideo(ctx context.Context, token string, upload UploadRequest) (*models.Video, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"title", upload.Title},
		{"description", upload.Description},
		{"tags", strings.Join(upload.Tags, ", ")},
		{"skill_level", upload.SkillLevel},
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return nil, &RequestError{Message: fmt.Sprintf("failed to build upload form: %v", err)}
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	header.Set("Content-Type", upload.ContentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("failed to build upload form: %v", err)}
	}
	if _, err := io.Copy(part, upload.File); err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("failed to read video file: %v", err)}
	}
	if err := form.Close(); err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("failed to build upload form: %v", err)}
	}

	var video models.Video
	opts := RequestOptions{
		Method:  http.MethodPost,
		Body:    &buf,
		Token:   token,
		Headers: map[string]string{"Content-Type": form.FormDataContentType()},
	}
	if err := c.Request(ctx, "/videos/upload", opts, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// IncrementView posts to POST /videos/increment-view.
func (c *Client) IncrementView(ctx context.Context, videoID string) error {
	body := map[string]string{"video_id": videoID}
	return c.Request(ctx, "/videos/increment-view", RequestOptions{Method: http.MethodPost, Body: body}, nil)
}

// RecommendFeed sends recently seen tags to POST /ai/recommend-feed and returns the suggested video ids.
func (c *Client) RecommendFeed(ctx context.Context, tags []string) ([]string, error) {
	if tags == nil {
		tags = []string{}
	}
	var resp models.RecommendationResponse
	opts := RequestOptions{Method: http.MethodPost, Body: models.RecommendationRequest{RecentTags: tags}}
	if err := c.Request(ctx, "/ai/recommend-feed", opts, &resp); err != nil {
		return nil, err
	}
	return resp.VideoIDs, nil
}

// GenerateSummary calls POST /ai/generate-summary.
func (c *Client) GenerateSummary(ctx context.Context, req models.SummaryRequest) (*models.SummaryResponse, error) {
	var resp models.SummaryResponse
	if err := c.Request(ctx, "/ai/generate-summary", RequestOptions{Method: http.MethodPost, Body: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateQuiz calls POST /ai/generate-quiz.
func (c *Client) GenerateQuiz(ctx context.Context, req models.QuizRequest) ([]models.QuizQuestion, error) {
	var resp models.QuizResponse
	if err := c.Request(ctx, "/ai/generate-quiz", RequestOptions{Method: http.MethodPost, Body: req}, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// CourseProgress fetches GET /progress/user/{userID}/course/{courseID}.
func (c *Client) CourseProgress(ctx context.Context, token, userID, courseID string) (*models.CourseProgress, error) {
	var progress models.CourseProgress
	path := fmt.Sprintf("/progress/user/%s/course/%s", escape(userID), escape(courseID))
	if err := c.Request(ctx, path, RequestOptions{Token: token}, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// UpdateProgress posts to POST /progress/update.
func (c *Client) UpdateProgress(ctx context.Context, token string, update models.ProgressUpdate) error {
	return c.Request(ctx, "/progress/update", RequestOptions{Method: http.MethodPost, Body: update, Token: token}, nil)
}

// RegisterRemote creates a backend account with POST /auth/register.
func (c *Client) RegisterRemote(ctx context.Context, name, email, password string, role models.Role) (*models.RemoteUser, error) {
	body := map[string]string{"name": name, "email": email, "password": password, "role": string(role)}
	var user models.RemoteUser
	if err := c.Request(ctx, "/auth/register", RequestOptions{Method: http.MethodPost, Body: body}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// LoginRemote exchanges credentials for a backend token with POST /auth/login.
func (c *Client) LoginRemote(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var token models.TokenResponse
	if err := c.Request(ctx, "/auth/login", RequestOptions{Method: http.MethodPost, Body: body}, &token); err != nil {
		return nil, err
	}
	return &token, nil
}
